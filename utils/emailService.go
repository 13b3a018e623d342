package utils

import (
	"fmt"
	"lms/config"
	"log"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendEmail sends a transactional email through SendGrid
func SendEmail(toEmail, toName, subject, htmlBody string) error {
	if config.AppConfig.SendGridApiKey == "" {
		log.Println("[EMAIL] SENDGRID_API_KEY not set, skipping email:", subject)
		return nil
	}

	from := mail.NewEmail("Classia Academy", config.AppConfig.EmailSender)
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, "", htmlBody)

	client := sendgrid.NewSendClient(config.AppConfig.SendGridApiKey)
	response, err := client.Send(message)
	if err != nil {
		log.Printf("[EMAIL] Failed to send '%s' to %s: %v", subject, toEmail, err)
		return err
	}
	if response.StatusCode >= 400 {
		log.Printf("[EMAIL] SendGrid rejected '%s' to %s with status %d", subject, toEmail, response.StatusCode)
		return fmt.Errorf("sendgrid status %d", response.StatusCode)
	}
	return nil
}

// SendEnrollmentReceipt emails the student after a successful enrollment
func SendEnrollmentReceipt(toEmail, toName, courseTitle string) error {
	subject := "You're enrolled: " + courseTitle
	body := getEmailTemplate("Enrollment Confirmed", fmt.Sprintf(`
		<p>Hi %s,</p>
		<p>Your enrollment in <b>%s</b> is confirmed. Head to your dashboard to start learning.</p>
	`, toName, courseTitle))
	return SendEmail(toEmail, toName, subject, body)
}

// SendCertificateIssuedEmail emails the student their certificate credential
func SendCertificateIssuedEmail(toEmail, toName, courseTitle, credentialID string) {
	subject := "Your certificate for " + courseTitle
	body := getEmailTemplate("Certificate Issued", fmt.Sprintf(`
		<p>Hi %s,</p>
		<p>Congratulations on completing <b>%s</b>!</p>
		<p>Your certificate credential ID is <b>%s</b>. Anyone can verify it on the public verification page.</p>
	`, toName, courseTitle, credentialID))
	if err := SendEmail(toEmail, toName, subject, body); err != nil {
		log.Printf("[EMAIL] Certificate email to %s failed: %v", toEmail, err)
	}
}

// getEmailTemplate wraps body content in the standard layout
func getEmailTemplate(title string, bodyContent string) string {
	return fmt.Sprintf(`
	<!DOCTYPE html>
	<html>
	<head>
		<style>
			body { font-family: 'Helvetica Neue', Helvetica, Arial, sans-serif; background-color: #F6F6F6; margin: 0; padding: 0; }
			.container { max-width: 600px; margin: 40px auto; background: #FFFFFF; border-radius: 8px; overflow: hidden; box-shadow: 0 4px 15px rgba(0,0,0,0.05); }
			.header { background-color: #00004D; padding: 30px; text-align: center; }
			.header h1 { color: #FFFFFF; margin: 0; font-size: 24px; letter-spacing: 1px; }
			.content { padding: 40px 30px; color: #00004D; line-height: 1.6; }
			.footer { padding: 20px; text-align: center; color: #999999; font-size: 12px; }
		</style>
	</head>
	<body>
		<div class="container">
			<div class="header"><h1>%s</h1></div>
			<div class="content">%s</div>
			<div class="footer">Classia Academy</div>
		</div>
	</body>
	</html>`, title, bodyContent)
}
