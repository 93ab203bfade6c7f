// Package campusnav is an embedded Go client for the campus building index.
//
// It wires the same services as the campusnav server directly against a
// store, so tools and tests can search buildings without running HTTP.
//
//	client, _ := campusnav.New(ctx, campusnav.WithInMemory())
//	defer client.Close()
//	_, _ = client.Seed(ctx, campusnav.SeedMissing)
//	hits, _ := client.Search().Query("library").Near(6.5176, 3.3753).Limit(5).Do(ctx)
package campusnav
