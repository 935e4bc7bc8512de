// Package flaps is a client for the Fly Machines API.
//
// A Client is bound to one app and talks to the public endpoint over HTTPS,
// or to the machine-local API proxy over a Unix socket:
//
//	c, err := flaps.New(flaps.Settings{AppName: "my-app", AuthToken: token})
//	if err != nil {
//	    return err
//	}
//	m, err := c.Get(ctx, "148ed726c32289")
//
// Errors are typed. Use IsNotFound, IsDesiredStateNotReached, IsLeaseNotFound
// or AsAPIError to inspect them.
package flaps
