// Package engine serves record collections over HTTP.
//
// A Server owns one stateful.Collection per configured resource and a
// middleware Pipeline. Requests pass through the pipeline stages in
// registration order (cors, body, accesslog by default), are dispatched by
// an httprouter.Router to the resource handlers, and fall through to a
// catch-all that answers 404 {"error":"unknown endpoint"}.
//
// Every resource exposes:
//
//	GET    <path>        list all records
//	GET    <path>/:id    get one record
//	POST   <path>        create a record
//	DELETE <path>/:id    delete a record (204 even when absent)
//	PUT    <path>/:id    update a record (person resources only)
//	POST   /mock<path>   echo the decoded body without storing it
//
// plus GET / and GET /info for the whole server.
package engine
