package jira

import (
	"encoding/base64"
	"strings"
)

const exGatewayBase = "https://api.atlassian.com/ex/jira/"

// Settings is the raw Jira configuration as read from the environment
type Settings struct {
	Email           string
	APIToken        string
	CloudID         string
	BaseSiteURL     string
	PreferExGateway bool
}

// Credentials are the validated values used to talk to Jira
type Credentials struct {
	Email       string
	APIToken    string
	CloudID     string
	BaseSiteURL string
}

// ResolveCredentials validates settings and normalizes the token and site URL
func ResolveCredentials(s Settings) (Credentials, error) {
	email := strings.TrimSpace(s.Email)
	token := strings.Join(strings.Fields(s.APIToken), "")
	if email == "" || token == "" {
		return Credentials{}, &ConfigurationError{Message: "Jira credentials incomplete. Provide JIRA_USER_EMAIL and JIRA_API_TOKEN."}
	}

	cloudID := strings.TrimSpace(s.CloudID)
	site := strings.TrimRight(strings.TrimSpace(s.BaseSiteURL), "/")
	if cloudID == "" && site == "" {
		return Credentials{}, &ConfigurationError{Message: "Jira base config incomplete. Provide JIRA_CLOUD_ID or JIRA_BASE_URL."}
	}

	return Credentials{
		Email:       email,
		APIToken:    token,
		CloudID:     cloudID,
		BaseSiteURL: site,
	}, nil
}

// BasicAuth returns the value of the Authorization header for these credentials
func (c Credentials) BasicAuth() string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(c.Email+":"+c.APIToken))
}

// MaskedEmail hides most of the email for logging
func (c Credentials) MaskedEmail() string {
	if len(c.Email) <= 6 {
		return "***"
	}
	return c.Email[:3] + "***" + c.Email[len(c.Email)-3:]
}

// BuildBaseURL picks the REST v3 base. With preferExGateway the cloud id wins over the site URL.
func BuildBaseURL(cloudID, siteURL string, preferExGateway bool) (string, error) {
	cloudID = strings.TrimSpace(cloudID)
	siteURL = strings.TrimRight(strings.TrimSpace(siteURL), "/")

	switch {
	case preferExGateway && cloudID != "":
		return exGatewayBase + cloudID + "/rest/api/3", nil
	case siteURL != "":
		return siteURL + "/rest/api/3", nil
	case cloudID != "":
		return exGatewayBase + cloudID + "/rest/api/3", nil
	}
	return "", &ConfigurationError{Message: "Missing Jira base config: neither cloud id nor site URL is set"}
}
