package html

// html is responsible for the HTML side of an email: wrapping content in a
// document that email clients render consistently, and turning an HTML body
// into the plain text alternative sent alongside it. It's not concerned
// with building or sending the message.
