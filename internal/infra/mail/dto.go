package mail

type LeadEmailData struct {
	Name       string
	Email      string
	CapturedAt string
}

type EmailSender struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	To       []string
}
