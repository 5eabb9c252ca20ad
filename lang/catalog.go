package lang

import (
	"fmt"

	"golang.org/x/text/message/catalog"
)

// Message keys. Each comment lists the arguments in order. Arguments are
// inserted into HTML as-is, so escape anything a user controls.
const (
	// username
	PasswordResetSubject = "password_reset_subject"
	// reset link, username
	PasswordResetBody = "password_reset_body"
	// hostname
	VerifyEmailSubject = "verify_email_subject"
	// hostname, username, verification link
	VerifyEmailBody = "verify_email_body"
	// username
	RegistrationApprovedSubject = "registration_approved_subject"
	// hostname
	RegistrationApprovedBody = "registration_approved_body"
	// applicant, hostname
	NewApplicationSubject = "new_application_subject"
	// link to the list of applications
	NewApplicationBody = "new_application_body"
	// hostname
	TestEmailSubject = "test_email_subject"
	// hostname
	TestEmailBody = "test_email_body"
)

// Keys returns every message key that each catalog defines.
func Keys() []string {
	return []string{
		PasswordResetSubject,
		PasswordResetBody,
		VerifyEmailSubject,
		VerifyEmailBody,
		RegistrationApprovedSubject,
		RegistrationApprovedBody,
		NewApplicationSubject,
		NewApplicationBody,
		TestEmailSubject,
		TestEmailBody,
	}
}

var messages = map[Lang]map[string]string{
	English: {
		PasswordResetSubject:        "Password reset for %[1]s",
		PasswordResetBody:           `<p>Hello %[2]s,</p><p>Someone requested a password reset for your account. <a href="%[1]s">Click here to reset your password</a>.</p><p>If you didn't request this, you can ignore this email.</p>`,
		VerifyEmailSubject:          "Verify your email address for %[1]s",
		VerifyEmailBody:             `<p>Hello %[2]s,</p><p>Please confirm your email address for %[1]s: <a href="%[3]s">verify email</a>.</p>`,
		RegistrationApprovedSubject: "Registration approved for %[1]s",
		RegistrationApprovedBody:    `<p>Your registration on %[1]s was approved. Welcome!</p>`,
		NewApplicationSubject:       "New registration application %[1]s on %[2]s",
		NewApplicationBody:          `<p><a href="%[1]s">Review the pending applications</a>.</p>`,
		TestEmailSubject:            "Test email from %[1]s",
		TestEmailBody:               `<p>This is a test email from %[1]s. If you can read it, email is set up correctly.</p>`,
	},
	German: {
		PasswordResetSubject:        "Passwort zurücksetzen für %[1]s",
		PasswordResetBody:           `<p>Hallo %[2]s,</p><p>für dein Konto wurde das Zurücksetzen des Passworts angefordert. <a href="%[1]s">Hier klicken, um dein Passwort zurückzusetzen</a>.</p><p>Falls du das nicht angefordert hast, kannst du diese E-Mail ignorieren.</p>`,
		VerifyEmailSubject:          "Bestätige deine E-Mail-Adresse für %[1]s",
		VerifyEmailBody:             `<p>Hallo %[2]s,</p><p>bitte bestätige deine E-Mail-Adresse für %[1]s: <a href="%[3]s">E-Mail bestätigen</a>.</p>`,
		RegistrationApprovedSubject: "Registrierung für %[1]s genehmigt",
		RegistrationApprovedBody:    `<p>Deine Registrierung auf %[1]s wurde genehmigt. Willkommen!</p>`,
		NewApplicationSubject:       "Neuer Registrierungsantrag %[1]s auf %[2]s",
		NewApplicationBody:          `<p><a href="%[1]s">Offene Anträge prüfen</a>.</p>`,
		TestEmailSubject:            "Test-E-Mail von %[1]s",
		TestEmailBody:               `<p>Dies ist eine Test-E-Mail von %[1]s. Wenn du sie lesen kannst, ist der E-Mail-Versand richtig eingerichtet.</p>`,
	},
	French: {
		PasswordResetSubject:        "Réinitialisation du mot de passe pour %[1]s",
		PasswordResetBody:           `<p>Bonjour %[2]s,</p><p>Une réinitialisation du mot de passe a été demandée pour votre compte. <a href="%[1]s">Cliquez ici pour réinitialiser votre mot de passe</a>.</p><p>Si vous n'êtes pas à l'origine de cette demande, ignorez cet e-mail.</p>`,
		VerifyEmailSubject:          "Vérifiez votre adresse e-mail pour %[1]s",
		VerifyEmailBody:             `<p>Bonjour %[2]s,</p><p>Veuillez confirmer votre adresse e-mail pour %[1]s : <a href="%[3]s">vérifier l'adresse</a>.</p>`,
		RegistrationApprovedSubject: "Inscription approuvée pour %[1]s",
		RegistrationApprovedBody:    `<p>Votre inscription sur %[1]s a été approuvée. Bienvenue !</p>`,
		NewApplicationSubject:       "Nouvelle demande d'inscription %[1]s sur %[2]s",
		NewApplicationBody:          `<p><a href="%[1]s">Examiner les demandes en attente</a>.</p>`,
		TestEmailSubject:            "E-mail de test de %[1]s",
		TestEmailBody:               `<p>Ceci est un e-mail de test de %[1]s. Si vous pouvez le lire, l'envoi d'e-mails est correctement configuré.</p>`,
	},
	Spanish: {
		PasswordResetSubject:        "Restablecimiento de contraseña para %[1]s",
		PasswordResetBody:           `<p>Hola %[2]s,</p><p>Se solicitó restablecer la contraseña de tu cuenta. <a href="%[1]s">Haz clic aquí para restablecer tu contraseña</a>.</p><p>Si no lo solicitaste, puedes ignorar este correo.</p>`,
		VerifyEmailSubject:          "Verifica tu dirección de correo para %[1]s",
		VerifyEmailBody:             `<p>Hola %[2]s,</p><p>Confirma tu dirección de correo para %[1]s: <a href="%[3]s">verificar correo</a>.</p>`,
		RegistrationApprovedSubject: "Registro aprobado para %[1]s",
		RegistrationApprovedBody:    `<p>Tu registro en %[1]s fue aprobado. ¡Bienvenido!</p>`,
		NewApplicationSubject:       "Nueva solicitud de registro %[1]s en %[2]s",
		NewApplicationBody:          `<p><a href="%[1]s">Revisar las solicitudes pendientes</a>.</p>`,
		TestEmailSubject:            "Correo de prueba de %[1]s",
		TestEmailBody:               `<p>Este es un correo de prueba de %[1]s. Si puedes leerlo, el correo está configurado correctamente.</p>`,
	},
	BrazilianPortuguese: {
		PasswordResetSubject:        "Redefinição de senha para %[1]s",
		PasswordResetBody:           `<p>Olá %[2]s,</p><p>Foi solicitada a redefinição da senha da sua conta. <a href="%[1]s">Clique aqui para redefinir sua senha</a>.</p><p>Se você não fez essa solicitação, ignore este e-mail.</p>`,
		VerifyEmailSubject:          "Confirme seu endereço de e-mail para %[1]s",
		VerifyEmailBody:             `<p>Olá %[2]s,</p><p>Confirme seu endereço de e-mail para %[1]s: <a href="%[3]s">confirmar e-mail</a>.</p>`,
		RegistrationApprovedSubject: "Cadastro aprovado para %[1]s",
		RegistrationApprovedBody:    `<p>Seu cadastro em %[1]s foi aprovado. Boas-vindas!</p>`,
		NewApplicationSubject:       "Nova solicitação de cadastro %[1]s em %[2]s",
		NewApplicationBody:          `<p><a href="%[1]s">Revisar as solicitações pendentes</a>.</p>`,
		TestEmailSubject:            "E-mail de teste de %[1]s",
		TestEmailBody:               `<p>Este é um e-mail de teste de %[1]s. Se você consegue lê-lo, o envio de e-mails está configurado corretamente.</p>`,
	},
}

var translations = catalog.NewBuilder(catalog.Fallback(tags[English]))

// The English catalog is what every lookup falls back to, so the binary
// must not start without it.
func init() {
	en, ok := messages[English]
	if !ok {
		panic("lang: no English catalog")
	}
	for _, k := range Keys() {
		if _, ok := en[k]; !ok {
			panic(fmt.Sprintf("lang: English catalog is missing %q", k))
		}
	}

	for _, l := range Supported() {
		for k, m := range messages[l] {
			if err := translations.SetString(l.Tag(), k, m); err != nil {
				panic(fmt.Sprintf("lang: can't add %q to the %v catalog: %v", k, l, err))
			}
		}
		byTag[l.String()] = l
		b, _ := l.Tag().Base()
		byBase[b.String()] = l
	}
}
