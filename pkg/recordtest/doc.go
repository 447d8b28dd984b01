// Package recordtest runs a recordd server inside Go tests.
//
// A Server starts empty; declare collections with the fluent Resource
// builder, or start from the stock deployment with Default:
//
//	func TestMyClient(t *testing.T) {
//	    srv := recordtest.New(t)
//	    srv.Resource("note", "/notes").
//	        Seed(map[string]any{"content": "first"}).
//	        Add()
//
//	    url := srv.Start()
//
//	    // exercise your code against url
//
//	    srv.AssertCalled(t, "GET", "/notes")
//	    srv.AssertCount(t, "/notes", 1)
//	}
//
// Expected paths may use :name segments, so "/notes/:id" matches any
// single record path. The server is closed automatically through
// t.Cleanup.
package recordtest
