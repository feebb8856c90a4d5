package timeline

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	chktest "github.com/yasuyuky/gh-chk/testing"
	"github.com/yasuyuky/gh-chk/types"
)

const testToken = "secret-token"

var (
	t0      = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	testRef = types.ItemRef{Owner: "octo", Repo: "hello", Number: 42}
)

func newTestClient(t *testing.T, srv *chktest.GraphQLServer, opts ...Option) *Client {
	t.Helper()

	opts = append([]Option{WithEndpoint(srv.URL), WithLogger(chktest.NewTestLogger(t))}, opts...)
	c, err := New(types.Credentials{Token: testToken, Source: "test"}, opts...)
	require.NoError(t, err)

	return c
}

type warningSink struct {
	mu       sync.Mutex
	warnings []types.Warning
}

func (s *warningSink) ctx(parent context.Context) context.Context {
	return types.ContextWithWarningHandler(parent, func(w types.Warning) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.warnings = append(s.warnings, w)
	})
}

func (s *warningSink) messages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(s.warnings))
	for _, w := range s.warnings {
		out = append(out, w.Message)
	}

	return out
}

func TestNew_RequiresToken(t *testing.T) {
	_, err := New(types.Credentials{})
	require.ErrorIs(t, err, ErrNoToken)
}

func TestClient_Events_Paging(t *testing.T) {
	srv := chktest.NewGraphQLServer(t, testToken)
	srv.SetItem(testRef, "Improve docs",
		chktest.AssignedNode("alice", t0),
		chktest.AssignedNode("bob", t0.Add(1*time.Hour)),
		chktest.UnassignedNode("alice", t0.Add(2*time.Hour)),
		chktest.AssignedNode("carol", t0.Add(3*time.Hour)),
		chktest.UnassignedNode("bob", t0.Add(4*time.Hour)),
	)

	c := newTestClient(t, srv, WithPageSize(2))
	it := c.Events(testRef)
	require.Equal(t, 0, srv.Requests(), "no request before the first Next")

	events, err := it.(*Iterator).All(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 5)
	require.Equal(t, "Improve docs", it.Title())
	require.Equal(t, 3, srv.Requests())
	require.Equal(t, 3, it.(*Iterator).Pages())

	require.Equal(t, types.Assigned("alice", t0), events[0])
	require.Equal(t, types.Unassigned("bob", t0.Add(4*time.Hour)), events[4])
}

func TestClient_Events_LargeTimelineIsNotTruncated(t *testing.T) {
	srv := chktest.NewGraphQLServer(t, testToken)

	nodes := make([]chktest.TimelineNode, 0, 250)
	for i := range 250 {
		login := "user" + string(rune('a'+i%26))
		if i%2 == 0 {
			nodes = append(nodes, chktest.AssignedNode(login, t0.Add(time.Duration(i)*time.Minute)))
		} else {
			nodes = append(nodes, chktest.UnassignedNode(login, t0.Add(time.Duration(i)*time.Minute)))
		}
	}
	srv.SetItem(testRef, "Long", nodes...)

	c := newTestClient(t, srv)
	events, err := c.Events(testRef).(*Iterator).All(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 250)
	require.Equal(t, 3, srv.Requests())
}

func TestClient_Events_DropsNonUserAssignees(t *testing.T) {
	srv := chktest.NewGraphQLServer(t, testToken)
	deleted := chktest.AssignedNode("ghost", t0.Add(2*time.Minute))
	deleted.Assignee = nil

	srv.SetItem(testRef, "Bots",
		chktest.AssignedNode("alice", t0),
		chktest.ActorNode("Bot", "dependabot", t0.Add(time.Minute)),
		deleted,
	)

	sink := &warningSink{}
	c := newTestClient(t, srv)
	events, err := c.Events(testRef).(*Iterator).All(sink.ctx(context.Background()))
	require.NoError(t, err)
	require.Equal(t, []types.TimelineEvent{types.Assigned("alice", t0)}, events)

	msgs := sink.messages()
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[0], "Bot")
	assert.Contains(t, msgs[1], "deleted or hidden")
}

func TestClient_Events_ErrorClassification(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		ref     types.ItemRef
		failure *chktest.Failure
		nodes   []chktest.TimelineNode
		kind    types.ErrorKind
		status  int
	}{
		{name: "bad credentials", token: "wrong", kind: types.ErrKindAuth, status: http.StatusUnauthorized},
		{
			name:    "primary rate limit",
			failure: &chktest.Failure{Status: http.StatusForbidden, Header: map[string]string{"X-RateLimit-Remaining": "0"}},
			kind:    types.ErrKindRateLimited,
			status:  http.StatusForbidden,
		},
		{
			name:    "secondary rate limit",
			failure: &chktest.Failure{Status: http.StatusForbidden, Body: `{"message":"You have exceeded a secondary rate limit"}`},
			kind:    types.ErrKindRateLimited,
			status:  http.StatusForbidden,
		},
		{name: "forbidden", failure: &chktest.Failure{Status: http.StatusForbidden}, kind: types.ErrKindAuth, status: http.StatusForbidden},
		{name: "too many requests", failure: &chktest.Failure{Status: http.StatusTooManyRequests}, kind: types.ErrKindRateLimited, status: http.StatusTooManyRequests},
		{name: "http not found", failure: &chktest.Failure{Status: http.StatusNotFound}, kind: types.ErrKindNotFound, status: http.StatusNotFound},
		{name: "server error", failure: &chktest.Failure{Status: http.StatusBadGateway}, kind: types.ErrKindNetwork, status: http.StatusBadGateway},
		{name: "graphql rate limited", failure: &chktest.Failure{GQLType: "RATE_LIMITED"}, kind: types.ErrKindRateLimited, status: http.StatusOK},
		{name: "undecodable body", failure: &chktest.Failure{Status: http.StatusOK, Body: "{"}, kind: types.ErrKindMalformed, status: http.StatusOK},
		{name: "unknown item", ref: types.ItemRef{Owner: "octo", Repo: "hello", Number: 999}, kind: types.ErrKindNotFound, status: http.StatusOK},
		{name: "unknown repository", ref: types.ItemRef{Owner: "octo", Repo: "nope", Number: 1}, kind: types.ErrKindNotFound, status: http.StatusOK},
		{
			name:   "unparseable timestamp",
			nodes:  []chktest.TimelineNode{{Typename: "AssignedEvent", CreatedAt: "yesterday", Assignee: &chktest.Actor{Typename: "User", Login: "alice"}}},
			kind:   types.ErrKindMalformed,
			status: http.StatusOK,
		},
		{
			name:   "unknown typename",
			nodes:  []chktest.TimelineNode{{Typename: "LabeledEvent", CreatedAt: t0.Format(time.RFC3339)}},
			kind:   types.ErrKindMalformed,
			status: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := chktest.NewGraphQLServer(t, testToken)
			nodes := tt.nodes
			if nodes == nil {
				nodes = []chktest.TimelineNode{chktest.AssignedNode("alice", t0)}
			}
			srv.SetItem(testRef, "Title", nodes...)
			if tt.failure != nil {
				srv.FailNext(testRef, *tt.failure)
			}

			token := tt.token
			if token == "" {
				token = testToken
			}
			c, err := New(types.Credentials{Token: token}, WithEndpoint(srv.URL))
			require.NoError(t, err)

			ref := tt.ref
			if ref == (types.ItemRef{}) {
				ref = testRef
			}

			it := c.Events(ref)
			require.False(t, it.Next(context.Background()))

			err = it.Err()
			require.Error(t, err)
			require.Equal(t, tt.kind, types.KindOf(err), "error: %v", err)
			require.ErrorIs(t, err, tt.kind.Sentinel())

			var apiErr *types.APIError
			require.ErrorAs(t, err, &apiErr)
			require.Equal(t, ref, apiErr.Item)
			require.Equal(t, tt.status, apiErr.Status)
		})
	}
}

func TestClient_Retries(t *testing.T) {
	t.Run("disabled by default", func(t *testing.T) {
		srv := chktest.NewGraphQLServer(t, testToken)
		srv.SetItem(testRef, "Title", chktest.AssignedNode("alice", t0))
		srv.FailNext(testRef, chktest.Failure{Status: http.StatusBadGateway})

		it := newTestClient(t, srv).Events(testRef)
		require.False(t, it.Next(context.Background()))
		require.ErrorIs(t, it.Err(), types.ErrNetwork)
		require.Equal(t, 1, srv.Requests())
	})

	t.Run("transient failures are retried", func(t *testing.T) {
		srv := chktest.NewGraphQLServer(t, testToken)
		srv.SetItem(testRef, "Title", chktest.AssignedNode("alice", t0))
		srv.FailNext(testRef,
			chktest.Failure{Status: http.StatusBadGateway},
			chktest.Failure{Status: http.StatusTooManyRequests, Header: map[string]string{"Retry-After": "0"}},
		)

		c := newTestClient(t, srv, WithMaxRetries(2), WithRetryDelays(time.Millisecond, 5*time.Millisecond), WithRetrySeed(1))
		events, err := c.Events(testRef).(*Iterator).All(context.Background())
		require.NoError(t, err)
		require.Len(t, events, 1)
		require.Equal(t, 3, srv.Requests())
	})

	t.Run("permanent failures are not retried", func(t *testing.T) {
		srv := chktest.NewGraphQLServer(t, testToken)
		srv.SetItem(testRef, "Title", chktest.AssignedNode("alice", t0))
		srv.FailNext(testRef, chktest.Failure{Status: http.StatusNotFound})

		c := newTestClient(t, srv, WithMaxRetries(3), WithRetryDelays(time.Millisecond, time.Millisecond))
		it := c.Events(testRef)
		require.False(t, it.Next(context.Background()))
		require.ErrorIs(t, it.Err(), types.ErrNotFound)
		require.Equal(t, 1, srv.Requests())
	})

	t.Run("long server advice is not waited out", func(t *testing.T) {
		srv := chktest.NewGraphQLServer(t, testToken)
		srv.SetItem(testRef, "Title", chktest.AssignedNode("alice", t0))
		srv.FailNext(testRef, chktest.Failure{
			Status: http.StatusForbidden,
			Header: map[string]string{
				"X-RateLimit-Remaining": "0",
				"X-RateLimit-Reset":     strconv.FormatInt(time.Now().Add(time.Hour).Unix(), 10),
			},
		})

		c := newTestClient(t, srv, WithMaxRetries(3), WithRetryDelays(time.Millisecond, 50*time.Millisecond))
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		it := c.Events(testRef)
		require.False(t, it.Next(ctx))
		require.ErrorIs(t, it.Err(), types.ErrRateLimited)
		require.NoError(t, ctx.Err(), "the worker must not park until the reset")
		require.Equal(t, 1, srv.Requests())
	})

	t.Run("retry budget exhausted", func(t *testing.T) {
		srv := chktest.NewGraphQLServer(t, testToken)
		srv.SetItem(testRef, "Title", chktest.AssignedNode("alice", t0))
		srv.FailNext(testRef,
			chktest.Failure{Status: http.StatusBadGateway},
			chktest.Failure{Status: http.StatusBadGateway},
		)

		c := newTestClient(t, srv, WithMaxRetries(1), WithRetryDelays(time.Millisecond, time.Millisecond))
		it := c.Events(testRef)
		require.False(t, it.Next(context.Background()))
		require.ErrorIs(t, it.Err(), types.ErrNetwork)
		require.Equal(t, 2, srv.Requests())
	})
}

func TestClient_ContextCancellation(t *testing.T) {
	srv := chktest.NewGraphQLServer(t, testToken)
	srv.SetItem(testRef, "Title", chktest.AssignedNode("alice", t0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	it := newTestClient(t, srv).Events(testRef)
	require.False(t, it.Next(ctx))
	require.ErrorIs(t, it.Err(), context.Canceled)
	require.Equal(t, types.ErrKindUnknown, types.KindOf(it.Err()))
	require.Equal(t, 0, srv.Requests())
}

func TestClient_SharedLimiter(t *testing.T) {
	srv := chktest.NewGraphQLServer(t, testToken)
	srv.SetItem(testRef, "Title",
		chktest.AssignedNode("alice", t0),
		chktest.AssignedNode("bob", t0.Add(time.Minute)),
	)

	// One token, refilled once per hour: the second page cannot be afforded.
	limiter := rate.NewLimiter(rate.Every(time.Hour), 1)
	c := newTestClient(t, srv, WithPageSize(1), WithLimiter(limiter))

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	it := c.Events(testRef)
	require.True(t, it.Next(ctx))
	require.False(t, it.Next(ctx))
	require.ErrorIs(t, it.Err(), types.ErrRateLimited)
	require.NoError(t, ctx.Err(), "the limiter gives up before the deadline passes")
	require.Equal(t, 1, srv.Requests())
}

func TestIterator_Reset(t *testing.T) {
	srv := chktest.NewGraphQLServer(t, testToken)
	srv.SetItem(testRef, "Title", chktest.AssignedNode("alice", t0))

	it := newTestClient(t, srv).Events(testRef).(*Iterator)
	events, err := it.All(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)

	srv.AppendNodes(testRef, chktest.UnassignedNode("alice", t0.Add(time.Hour)))
	it.Reset()
	require.Empty(t, it.Title())

	events, err = it.All(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, 2, srv.Requests())
}
