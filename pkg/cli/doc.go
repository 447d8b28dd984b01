// Package cli implements the recordd command line.
//
// Running recordd with no subcommand starts the server, as does
// "recordd serve". The list, get, add, update and delete commands are an
// HTTP client for a running server:
//
//	recordd list /notes
//	recordd add /api/persons --name "Grace Hopper" --number 1-800-555
//	recordd update /api/persons 3 --number 555-0100
//	recordd delete /notes 2
//
// add prompts for the record fields when no field flags are given and
// stdin is a terminal.
package cli
