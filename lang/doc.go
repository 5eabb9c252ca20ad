package lang

// lang is responsible for the translations that go into notification
// emails. It maps a user's language preference onto one of the catalogs
// compiled into the binary, falling back to English.
