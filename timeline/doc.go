// Package timeline fetches the assignment timeline of issues and pull requests.
//
// Client implements types.EventSource against the GraphQL API. Events are
// fetched lazily, one page per Next call that runs out of buffered events,
// until the API reports no further page. FileSource serves a canned response
// file instead of the network.
//
// All failures are returned as *types.APIError so callers can branch on the
// error kind with errors.Is(err, types.ErrRateLimited) and friends.
package timeline
