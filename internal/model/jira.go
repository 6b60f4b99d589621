package model

import (
	"bytes"
	"encoding/json"
)

// DefaultSearchFields is used when a search request names no fields
var DefaultSearchFields = []string{"summary", "description", "created"}

// SearchRequest is the inbound search body accepted by the proxy
type SearchRequest struct {
	JQL        string   `json:"jql"`
	Fields     []string `json:"fields,omitempty"`
	MaxResults int      `json:"maxResults,omitempty"`
}

// JiraIssue represents a Jira issue as returned by the search endpoint.
// An issue decoded from Jira keeps its original bytes in Raw and is encoded
// back exactly as received. Numbers in Fields are json.Number.
type JiraIssue struct {
	ID     string          `json:"id,omitempty"`
	Key    string          `json:"key"`
	Fields map[string]any  `json:"fields"`
	Raw    json.RawMessage `json:"-"`
}

type jiraIssueJSON struct {
	ID     string         `json:"id,omitempty"`
	Key    string         `json:"key"`
	Fields map[string]any `json:"fields"`
}

func (i *JiraIssue) UnmarshalJSON(data []byte) error {
	var v jiraIssueJSON
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return err
	}
	*i = JiraIssue{
		ID:     v.ID,
		Key:    v.Key,
		Fields: v.Fields,
		Raw:    append(json.RawMessage(nil), data...),
	}
	return nil
}

func (i JiraIssue) MarshalJSON() ([]byte, error) {
	if len(i.Raw) > 0 {
		return i.Raw, nil
	}
	return json.Marshal(jiraIssueJSON{ID: i.ID, Key: i.Key, Fields: i.Fields})
}

// JiraSearchResponse is the aggregated response returned to callers
type JiraSearchResponse struct {
	Issues []JiraIssue `json:"issues"`
	Total  int         `json:"total"`
	IsLast bool        `json:"isLast"`
}

// JiraSearchPage is a single page of POST /search/jql
type JiraSearchPage struct {
	Issues        []JiraIssue `json:"issues"`
	Total         int         `json:"total,omitempty"`
	IsLast        *bool       `json:"isLast,omitempty"`
	NextPageToken string      `json:"nextPageToken,omitempty"`
}

// JiraSearchPageRequest is the body sent upstream for each page
type JiraSearchPageRequest struct {
	JQL           string   `json:"jql"`
	Fields        []string `json:"fields"`
	MaxResults    int      `json:"maxResults"`
	NextPageToken string   `json:"nextPageToken,omitempty"`
}

// JiraStatus represents the status of a Jira issue
type JiraStatus struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// JiraTransition is one workflow transition available on an issue
type JiraTransition struct {
	ID   string      `json:"id"`
	Name string      `json:"name"`
	To   *JiraStatus `json:"to,omitempty"`
}

// JiraTransitionsResponse wraps GET /issue/{key}/transitions
type JiraTransitionsResponse struct {
	Transitions []JiraTransition `json:"transitions"`
}

// JiraSite is an entry of the accessible-resources endpoint
type JiraSite struct {
	ID   string `json:"id"`
	URL  string `json:"url"`
	Name string `json:"name,omitempty"`
}
