// Package updater checks GitHub Releases for a newer Neustart build.
package updater

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"

	"github.com/neustart-io/neustart/internal/buildinfo"
)

// ReleasesURL is the GitHub endpoint for the latest published release.
const ReleasesURL = "https://api.github.com/repos/neustart-io/neustart/releases/latest"

// ReleaseInfo contains information about a GitHub release.
type ReleaseInfo struct {
	TagName string `json:"tag_name"`
	HTMLURL string `json:"html_url"`
}

// UpdateResult contains the result of an update check.
type UpdateResult struct {
	Available      bool
	CurrentVersion string
	LatestVersion  string
	ReleaseURL     string
}

// Checker queries a releases endpoint.
type Checker struct {
	resty *resty.Client
	url   string
}

// NewChecker creates a checker for url; pass ReleasesURL outside tests.
func NewChecker(url string) *Checker {
	r := resty.New().
		SetTimeout(10*time.Second).
		SetHeader("Accept", "application/vnd.github.v3+json").
		SetHeader("User-Agent", "neustart/"+buildinfo.Version).
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal)
	return &Checker{resty: r, url: url}
}

// Check compares current against the latest release. A current version
// that is not a release ("dev") always reports an update.
func (c *Checker) Check(ctx context.Context, current string) (*UpdateResult, error) {
	var release ReleaseInfo
	resp, err := c.resty.R().
		SetContext(ctx).
		SetResult(&release).
		Get(c.url)
	if err != nil {
		return nil, fmt.Errorf("fetch releases: %w", err)
	}

	switch resp.StatusCode() {
	case http.StatusOK:
	case http.StatusNotFound:
		// No releases yet
		return &UpdateResult{CurrentVersion: current}, nil
	default:
		return nil, fmt.Errorf("GitHub API returned %d", resp.StatusCode())
	}

	latestVersion := strings.TrimPrefix(release.TagName, "v")
	result := &UpdateResult{
		CurrentVersion: current,
		LatestVersion:  latestVersion,
		ReleaseURL:     release.HTMLURL,
	}

	latest, err := ParseSemver(latestVersion)
	if err != nil {
		return nil, fmt.Errorf("parse latest version %q: %w", latestVersion, err)
	}
	installed, err := ParseSemver(current)
	if err != nil {
		result.Available = true
		return result, nil
	}
	result.Available = installed.LessThan(latest)
	return result, nil
}
