// Package geo38 is a typed client for Tile38-compatible geospatial servers.
//
// Commands are assembled with fluent builders and compiled into the
// server's positional grammar:
//
//	client, err := geo38.New(ctx, geo38.WithRueidis("localhost:9851", ""))
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	_, err = client.Set("fleet", "truck").Point(52.25, 13.37).Exec(ctx)
//
//	res, err := client.Within("fleet").
//		Match("truck*").
//		Limit(10).
//		Circle(52.25, 13.37, 1000).
//		AsObjects(ctx)
//
// Every terminal call returns either a fully decoded response or one error:
// ErrInvalidState from Compile, *TransportError, *ServerError (classified
// into ErrKeyNotFound, ErrIDNotFound, ErrInvalidArgument, ErrOutOfRange or
// ErrServer) or *DecodeError.
//
// Collection maps a tagged struct onto one key:
//
//	type Truck struct {
//		ID    string  `geo38:"id,id"`
//		Lat   float64 `geo38:"lat,lat"`
//		Lon   float64 `geo38:"lon,lon"`
//		Speed float64 `geo38:"speed,field"`
//	}
//
//	trucks, err := geo38.NewCollection[Truck](client, "fleet")
//	err = trucks.Upsert(ctx, Truck{ID: "t1", Lat: 52.25, Lon: 13.37, Speed: 40})
//	hits, err := trucks.Nearby().Near(52.25, 13.37).Km(5).Limit(3).Do(ctx)
package geo38
