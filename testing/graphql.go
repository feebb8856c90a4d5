package testing

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yasuyuky/gh-chk/types"
)

// TimelineNode is one timeline item as served by GraphQLServer.
//
// Fields mirror the wire format so tests can also serve malformed nodes
// (unknown typename, bad timestamp, null assignee).
type TimelineNode struct {
	Typename  string `json:"__typename"`
	CreatedAt string `json:"createdAt"`
	Assignee  *Actor `json:"assignee"`
}

// Actor is the assignee of a timeline node.
type Actor struct {
	Typename string `json:"__typename"`
	Login    string `json:"login,omitempty"`
	Name     string `json:"name,omitempty"`
}

// AssignedNode returns an AssignedEvent node for a user.
func AssignedNode(login string, at time.Time) TimelineNode {
	return userNode("AssignedEvent", login, at)
}

// UnassignedNode returns an UnassignedEvent node for a user.
func UnassignedNode(login string, at time.Time) TimelineNode {
	return userNode("UnassignedEvent", login, at)
}

// ActorNode returns an AssignedEvent node whose assignee has the given actor type
// ("Bot", "Mannequin", ...).
func ActorNode(actorType, login string, at time.Time) TimelineNode {
	n := userNode("AssignedEvent", login, at)
	n.Assignee.Typename = actorType

	return n
}

func userNode(typename, login string, at time.Time) TimelineNode {
	return TimelineNode{
		Typename:  typename,
		CreatedAt: at.UTC().Format(time.RFC3339),
		Assignee:  &Actor{Typename: "User", Login: login},
	}
}

// Failure is a canned HTTP failure served instead of the next page of an item.
type Failure struct {
	Status  int
	Header  map[string]string
	Body    string
	GQLType string // when set, a 200 response carrying a GraphQL error of this type
}

type fakeItem struct {
	title    string
	nodes    []TimelineNode
	failures []Failure
}

// GraphQLServer is an in-process fake of the timeline GraphQL endpoint.
//
// It serves repository.issueOrPullRequest.timelineItems with cursor paging
// honoring the "first" and "after" variables, checks the bearer token, and
// can inject failures per item.
type GraphQLServer struct {
	*httptest.Server

	token    string
	requests atomic.Int64

	mu    sync.Mutex
	items map[types.ItemRef]*fakeItem
	repos map[string]bool
}

// NewGraphQLServer starts a fake endpoint that requires the given bearer token.
//
// The server is closed automatically when the test completes.
func NewGraphQLServer(t *testing.T, token string) *GraphQLServer {
	t.Helper()

	s := &GraphQLServer{
		token: token,
		items: make(map[types.ItemRef]*fakeItem),
		repos: make(map[string]bool),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)

	return s
}

// SetItem replaces the title and timeline of ref.
func (s *GraphQLServer) SetItem(ref types.ItemRef, title string, nodes ...TimelineNode) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.item(ref)
	item.title = title
	item.nodes = append([]TimelineNode(nil), nodes...)
}

// AppendNodes adds nodes to the end of ref's timeline.
func (s *GraphQLServer) AppendNodes(ref types.ItemRef, nodes ...TimelineNode) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.item(ref)
	item.nodes = append(item.nodes, nodes...)
}

// FailNext queues failures served, in order, for the next requests about ref.
func (s *GraphQLServer) FailNext(ref types.ItemRef, failures ...Failure) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.item(ref)
	item.failures = append(item.failures, failures...)
}

// Requests returns the number of requests received so far.
func (s *GraphQLServer) Requests() int {
	return int(s.requests.Load())
}

func (s *GraphQLServer) item(ref types.ItemRef) *fakeItem {
	s.repos[ref.Slug()] = true
	item, ok := s.items[ref]
	if !ok {
		item = &fakeItem{}
		s.items[ref] = item
	}

	return item
}

type fakeRequest struct {
	Query     string `json:"query"`
	Variables struct {
		Owner  string  `json:"owner"`
		Name   string  `json:"name"`
		Number int     `json:"number"`
		First  int     `json:"first"`
		After  *string `json:"after"`
	} `json:"variables"`
}

func (s *GraphQLServer) handle(w http.ResponseWriter, r *http.Request) {
	s.requests.Add(1)

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !strings.EqualFold(r.Header.Get("Authorization"), "bearer "+s.token) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Bad credentials"})
		return
	}

	var req fakeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "Problems parsing JSON"})
		return
	}
	v := req.Variables
	ref := types.ItemRef{Owner: v.Owner, Repo: v.Name, Number: v.Number}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.repos[ref.Slug()] {
		writeJSON(w, http.StatusOK, map[string]any{
			"data":   map[string]any{"repository": nil},
			"errors": []map[string]any{notFound(fmt.Sprintf("Could not resolve to a Repository with the name '%s'.", ref.Slug()))},
		})
		return
	}

	item, ok := s.items[ref]
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{
			"data":   map[string]any{"repository": map[string]any{"issueOrPullRequest": nil}},
			"errors": []map[string]any{notFound(fmt.Sprintf("Could not resolve to an issue or pull request with the number of %d.", ref.Number))},
		})
		return
	}

	if len(item.failures) > 0 {
		f := item.failures[0]
		item.failures = item.failures[1:]
		serveFailure(w, f)
		return
	}

	offset := 0
	if v.After != nil && *v.After != "" {
		n, err := strconv.Atoi(strings.TrimPrefix(*v.After, "cursor:"))
		if err != nil {
			writeJSON(w, http.StatusOK, map[string]any{
				"errors": []map[string]any{{"type": "INVALID_CURSOR_ARGUMENTS", "message": "invalid cursor"}},
			})
			return
		}
		offset = n
	}
	first := v.First
	if first <= 0 || first > 100 {
		first = 100
	}

	end := min(offset+first, len(item.nodes))
	offset = min(offset, end)
	page := item.nodes[offset:end]
	hasNext := end < len(item.nodes)

	var endCursor any
	if len(page) > 0 {
		endCursor = "cursor:" + strconv.Itoa(end)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{
			"repository": map[string]any{
				"issueOrPullRequest": map[string]any{
					"__typename": "Issue",
					"number":     ref.Number,
					"title":      item.title,
					"timelineItems": map[string]any{
						"pageInfo": map[string]any{"hasNextPage": hasNext, "endCursor": endCursor},
						"nodes":    page,
					},
				},
			},
		},
	})
}

func serveFailure(w http.ResponseWriter, f Failure) {
	for k, v := range f.Header {
		w.Header().Set(k, v)
	}
	if f.GQLType != "" {
		writeJSON(w, http.StatusOK, map[string]any{
			"errors": []map[string]any{{"type": f.GQLType, "message": strings.ToLower(f.GQLType)}},
		})
		return
	}

	status := f.Status
	if status == 0 {
		status = http.StatusInternalServerError
	}
	body := f.Body
	if body == "" {
		body = `{"message":"` + http.StatusText(status) + `"}`
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func notFound(msg string) map[string]any {
	return map[string]any{"type": "NOT_FOUND", "message": msg}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
