package e2e

// e2e contains integration tests and utility code required to set up
// dependencies. Each test writes a real config file, loads it the way the
// command does, sends notifications through an in-process SMTP server and
// inspects what arrived. Dependencies shared with unit tests live in
// smtptest instead.
