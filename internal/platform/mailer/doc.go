// Package mailer delivers outbound email.
//
// SMTPSender talks to a mail server through net/smtp. LogSender writes
// messages to the log and is used when mail is disabled. New wraps either
// one in a circuit breaker.
package mailer
