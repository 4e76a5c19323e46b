// Package command exposes go-command compatible command handlers implementing
// go-fields business logic (field definition mutations, ordering persistence,
// bulk assignment, etc.). Commands are wired by the service layer and can be
// invoked by any transport.
package command
