package services

const (
	CodeInvalidEmail      = "auth/invalid-email"
	CodeUserDisabled      = "auth/user-disabled"
	CodeUserNotFound      = "auth/user-not-found"
	CodeWrongPassword     = "auth/wrong-password"
	CodeTooManyRequests   = "auth/too-many-requests"
	CodeInvalidCredential = "auth/invalid-credential"
)

var authMessages = map[string]string{
	CodeInvalidEmail:      "Geçersiz email adresi",
	CodeUserDisabled:      "Bu hesap devre dışı bırakılmış",
	CodeUserNotFound:      "Kullanıcı bulunamadı",
	CodeWrongPassword:     "Hatalı şifre",
	CodeTooManyRequests:   "Çok fazla deneme. Lütfen bekleyin.",
	CodeInvalidCredential: "Email veya şifre hatalı",
}

const genericAuthMessage = "Giriş yapılamadı. Lütfen tekrar deneyin."

type AuthError struct {
	Code string
}

func (err *AuthError) Error() string {
	return err.Code
}

func (err *AuthError) Message() string {
	return AuthErrorMessage(err.Code)
}

// AuthErrorMessage maps a provider code to the message shown at sign-in.
func AuthErrorMessage(code string) string {
	if message, ok := authMessages[code]; ok {
		return message
	}
	return genericAuthMessage
}
