package email

import "fmt"

type Content struct {
	Subject string
	Text    string
	HTML    string
}

func VerificationEmail(link string) Content {
	return Content{
		Subject: "Verify your email",
		Text:    "Open the link below to verify your email address:\n" + link + "\nThe link expires in 1 hour. If you did not sign up, ignore this email.",
		HTML: "<p>Welcome to TaskHub!</p>" +
			fmt.Sprintf("<p>Click <a href=%q>here</a> to verify your email.</p>", link) +
			"<p>The link expires in 1 hour.</p>" +
			"<p>If you did not sign up, you can ignore this email.</p>",
	}
}

func PasswordResetEmail(link string) Content {
	return Content{
		Subject: "Reset your password",
		Text:    "Open the link below to reset your password:\n" + link + "\nThe link expires in 15 minutes. If you did not request this, ignore this email.",
		HTML: "<p>Password reset</p>" +
			fmt.Sprintf("<p>Click <a href=%q>here</a> to reset your password.</p>", link) +
			"<p>The link expires in 15 minutes.</p>" +
			"<p>If you did not request this, ignore this email.</p>",
	}
}
