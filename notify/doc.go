package notify

// notify is responsible for the emails the server sends on its own behalf,
// e.g., password resets and registration notices. It renders each one in
// the recipient's language and hands it to the email package.
