package timeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/yasuyuky/gh-chk/types"
)

// timelineSelection is shared by the Issue and PullRequest branches; their
// connection types differ, so a named fragment cannot be used.
const timelineSelection = `timelineItems(first: $first, after: $after, itemTypes: [ASSIGNED_EVENT, UNASSIGNED_EVENT]) {
          pageInfo { hasNextPage endCursor }
          nodes {
            __typename
            ... on AssignedEvent { createdAt assignee { ...assigneeFields } }
            ... on UnassignedEvent { createdAt assignee { ...assigneeFields } }
          }
        }`

// assigneeQuery selects one page of assignment events of an issue or pull request.
const assigneeQuery = `query($owner: String!, $name: String!, $number: Int!, $first: Int!, $after: String) {
  repository(owner: $owner, name: $name) {
    issueOrPullRequest(number: $number) {
      __typename
      ... on Issue {
        title
        ` + timelineSelection + `
      }
      ... on PullRequest {
        title
        ` + timelineSelection + `
      }
    }
  }
}

fragment assigneeFields on Assignee {
  __typename
  ... on User { login name }
  ... on Bot { login }
  ... on Mannequin { login }
}`

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables queryVariables `json:"variables"`
}

type queryVariables struct {
	Owner  string  `json:"owner"`
	Name   string  `json:"name"`
	Number int     `json:"number"`
	First  int     `json:"first"`
	After  *string `json:"after"`
}

type graphQLResponse struct {
	Data   *responseData  `json:"data"`
	Errors []graphQLError `json:"errors"`
}

type graphQLError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type responseData struct {
	Repository *repositoryNode `json:"repository"`
}

// repositoryNode accepts the item under issueOrPullRequest (live API) or
// under issue / pullRequest (hand-written response files).
type repositoryNode struct {
	IssueOrPullRequest *itemNode `json:"issueOrPullRequest"`
	Issue              *itemNode `json:"issue"`
	PullRequest        *itemNode `json:"pullRequest"`
}

func (r *repositoryNode) item() *itemNode {
	switch {
	case r.IssueOrPullRequest != nil:
		return r.IssueOrPullRequest
	case r.Issue != nil:
		return r.Issue
	default:
		return r.PullRequest
	}
}

type itemNode struct {
	Typename      string              `json:"__typename"`
	Title         string              `json:"title"`
	TimelineItems *timelineConnection `json:"timelineItems"`
}

type timelineConnection struct {
	PageInfo pageInfo       `json:"pageInfo"`
	Nodes    []timelineNode `json:"nodes"`
}

type pageInfo struct {
	HasNextPage bool    `json:"hasNextPage"`
	EndCursor   *string `json:"endCursor"`
}

type timelineNode struct {
	Typename  string     `json:"__typename"`
	CreatedAt string     `json:"createdAt"`
	Assignee  *actorNode `json:"assignee"`
}

type actorNode struct {
	Typename string `json:"__typename"`
	Login    string `json:"login"`
	Name     string `json:"name"`
}

// page is one decoded and normalized page of an item timeline.
type page struct {
	title     string
	events    []types.TimelineEvent
	skipped   []string // descriptions of dropped non-user assignments
	hasNext   bool
	endCursor string
	reordered bool // events arrived out of order and were stable-sorted
}

var errNoTimeline = errors.New("response has no timelineItems")

// decodePage parses a GraphQL response body into a page.
//
// GraphQL-level errors and missing objects are classified into *types.APIError;
// the caller fills in Op and Item.
func decodePage(body []byte) (*page, error) {
	var resp graphQLResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &types.APIError{Kind: types.ErrKindMalformed, Err: fmt.Errorf("decode response: %w", err)}
	}

	if len(resp.Errors) > 0 {
		return nil, classifyGraphQLErrors(resp.Errors)
	}
	if resp.Data == nil {
		return nil, &types.APIError{Kind: types.ErrKindMalformed, Err: errors.New("response has neither data nor errors")}
	}
	if resp.Data.Repository == nil {
		return nil, &types.APIError{Kind: types.ErrKindNotFound, Err: errors.New("repository not found")}
	}

	item := resp.Data.Repository.item()
	if item == nil {
		return nil, &types.APIError{Kind: types.ErrKindNotFound, Err: errors.New("issue or pull request not found")}
	}
	if item.TimelineItems == nil {
		return nil, &types.APIError{Kind: types.ErrKindMalformed, Err: errNoTimeline}
	}

	return normalize(item.Title, item.TimelineItems)
}

// normalize converts wire nodes into events, dropping non-user assignees.
func normalize(title string, conn *timelineConnection) (*page, error) {
	p := &page{
		title:   title,
		events:  make([]types.TimelineEvent, 0, len(conn.Nodes)),
		hasNext: conn.PageInfo.HasNextPage,
	}
	if conn.PageInfo.EndCursor != nil {
		p.endCursor = *conn.PageInfo.EndCursor
	}

	for i, n := range conn.Nodes {
		kind, err := types.ParseEventKind(n.Typename)
		if err != nil || !strings.HasSuffix(n.Typename, "Event") {
			return nil, &types.APIError{
				Kind: types.ErrKindMalformed,
				Err:  fmt.Errorf("node %d: unexpected __typename %q", i, n.Typename),
			}
		}

		ts, err := time.Parse(time.RFC3339, n.CreatedAt)
		if err != nil {
			return nil, &types.APIError{
				Kind: types.ErrKindMalformed,
				Err:  fmt.Errorf("node %d: invalid createdAt: %w", i, err),
			}
		}

		a := n.Assignee
		switch {
		case a == nil:
			p.skipped = append(p.skipped, fmt.Sprintf("%s at %s: deleted or hidden assignee", kind, n.CreatedAt))
			continue
		case a.Typename != "" && a.Typename != "User":
			p.skipped = append(p.skipped, fmt.Sprintf("%s at %s: %s %q", kind, n.CreatedAt, a.Typename, a.Login))
			continue
		case a.Login == "":
			p.skipped = append(p.skipped, fmt.Sprintf("%s at %s: assignee without login", kind, n.CreatedAt))
			continue
		}

		p.events = append(p.events, types.TimelineEvent{
			Kind:      kind,
			Timestamp: ts.UTC(),
			Assignee:  types.Assignee{Login: a.Login, DisplayName: a.Name},
		})
	}

	if !slices.IsSortedFunc(p.events, compareEvents) {
		slices.SortStableFunc(p.events, compareEvents)
		p.reordered = true
	}

	return p, nil
}

func compareEvents(a, b types.TimelineEvent) int {
	return a.Timestamp.Compare(b.Timestamp)
}
