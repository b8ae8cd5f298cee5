// Package task defines the contract a unit of work must satisfy to be shipped
// to a child process and merged back, together with the codecs used to move
// it across the process boundary.
package task
