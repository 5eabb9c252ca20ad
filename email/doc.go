package email

// email is responsible for handing transactional messages to an SMTP relay.
// It checks the relay address and both mailboxes before dialing, builds a
// multipart/alternative message whose text/plain part is derived from the
// HTML, and then speaks SMTP over plaintext, STARTTLS or implicit TLS as the
// config asks. Once connected, every relay failure comes back to the caller
// as ErrEmailSendFailed.
