// Package mastplan provides a Go client that checks the MAST archive for
// JWST observations already planned near a sky position.
//
// Every search is count-first: a COUNT query runs before any record fetch,
// and records are only fetched when the count is between 1 and the
// full-fetch limit (1000 by default). Requests are never retried.
//
// # Low-level API
//
//	client, _ := mastplan.New(mastplan.WithTimeout(30 * time.Second))
//	pos, _ := client.Resolve(ctx, "TRAPPIST-1")
//	res, _ := client.Search(ctx, pos.Position, 10, nil)
//	fmt.Println(res.Count, res.Branch)
//
// # Builder API with typed rows
//
//	type Obs struct {
//	    ID         string  `mast:"obs_id"`
//	    Instrument string  `mast:"instrument_name"`
//	    Exposure   float64 `mast:"t_exptime"`
//	}
//
//	res, _ := client.Planned().Target("TRAPPIST-1").Arcsec(10).
//	    Where("instrument_name", "NIRSPEC/IFU").Do(ctx)
//	rows, _ := mastplan.Decode[Obs](res.Observations)
package mastplan
