package smtp

import "fmt"

const baseStyle = `font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; color: #333;`

// VerificationEmail builds the subject and body for the email
// verification message sent on registration and resend.
func VerificationEmail(appName, firstName, code string) (subject, body string) {
	subject = fmt.Sprintf("Verify your %s account", appName)
	body = fmt.Sprintf(`<div style="%s">
  <h2>Welcome to %s, %s!</h2>
  <p>Enter the code below to verify your email address. The code expires in 24 hours.</p>
  <p style="font-size: 28px; letter-spacing: 6px; font-weight: bold; text-align: center; padding: 16px; background: #f4f4f4; border-radius: 4px;">%s</p>
  <p>If you did not create an account, you can safely ignore this email.</p>
</div>`, baseStyle, appName, firstName, code)
	return subject, body
}

// WelcomeEmail is sent once the email address has been verified.
func WelcomeEmail(appName, firstName string) (subject, body string) {
	subject = fmt.Sprintf("Welcome to %s", appName)
	body = fmt.Sprintf(`<div style="%s">
  <h2>You're all set, %s!</h2>
  <p>Your email has been verified and your %s account is ready to use.</p>
  <p>Happy shopping!</p>
</div>`, baseStyle, firstName, appName)
	return subject, body
}

// PasswordResetEmail carries the reset link. The link is valid for one hour.
func PasswordResetEmail(appName, firstName, resetURL string) (subject, body string) {
	subject = fmt.Sprintf("Reset your %s password", appName)
	body = fmt.Sprintf(`<div style="%s">
  <h2>Password reset requested</h2>
  <p>Hi %s, we received a request to reset your password. Click the button below to choose a new one. The link expires in 1 hour.</p>
  <p style="text-align: center;"><a href="%s" style="display: inline-block; padding: 12px 24px; background: #2d6cdf; color: #fff; text-decoration: none; border-radius: 4px;">Reset password</a></p>
  <p>If you did not request this, no action is needed and your password will remain unchanged.</p>
</div>`, baseStyle, firstName, resetURL)
	return subject, body
}

// PasswordChangedEmail notifies the account owner after a successful
// password reset or change.
func PasswordChangedEmail(appName, firstName string) (subject, body string) {
	subject = fmt.Sprintf("Your %s password was changed", appName)
	body = fmt.Sprintf(`<div style="%s">
  <h2>Password changed</h2>
  <p>Hi %s, this is a confirmation that the password for your %s account was just changed.</p>
  <p>If this wasn't you, reset your password immediately and contact support.</p>
</div>`, baseStyle, firstName, appName)
	return subject, body
}

// AccountDeletedEmail carries the restore link for a soft-deleted account.
func AccountDeletedEmail(appName, firstName, restoreURL string) (subject, body string) {
	subject = fmt.Sprintf("Your %s account has been deactivated", appName)
	body = fmt.Sprintf(`<div style="%s">
  <h2>Account deactivated</h2>
  <p>Hi %s, your %s account has been deactivated as requested. It will be permanently deleted in 30 days.</p>
  <p>Changed your mind? You can restore your account any time before then:</p>
  <p style="text-align: center;"><a href="%s" style="display: inline-block; padding: 12px 24px; background: #2d6cdf; color: #fff; text-decoration: none; border-radius: 4px;">Restore my account</a></p>
  <p>After 30 days all account data is removed and cannot be recovered.</p>
</div>`, baseStyle, firstName, appName, restoreURL)
	return subject, body
}

// AccountRestoredEmail confirms a successful restore.
func AccountRestoredEmail(appName, firstName string) (subject, body string) {
	subject = fmt.Sprintf("Your %s account has been restored", appName)
	body = fmt.Sprintf(`<div style="%s">
  <h2>Welcome back, %s!</h2>
  <p>Your %s account has been restored and is active again. You can sign in as usual.</p>
</div>`, baseStyle, firstName, appName)
	return subject, body
}
