// Package selfupdate replaces the running binary with the latest GitHub
// release.
package selfupdate

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"runtime"

	"github.com/minio/selfupdate"
	"github.com/ulikunitz/xz"
	"golang.org/x/mod/semver"

	"github.com/babs/icoutils/internal/version"
)

// APIBase is the GitHub API endpoint.
var APIBase = "https://api.github.com"

// LatestRelease returns the name of the latest release of repo.
func LatestRelease(client *http.Client, repo string) (string, error) {
	url := fmt.Sprintf("%s/repos/%s/releases/latest", APIBase, repo)
	resp, err := client.Get(url)
	if err != nil {
		return "", fmt.Errorf("check for updates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("GitHub API returned HTTP %d", resp.StatusCode)
	}

	var release struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return "", fmt.Errorf("parse release info: %w", err)
	}
	return release.Name, nil
}

// AssetURL returns the download URL of program's xz-compressed binary.
func AssetURL(repo, release, program, goos, goarch string) string {
	ext := "xz"
	if goos == "windows" {
		ext = "exe.xz"
	}
	return fmt.Sprintf("https://github.com/%s/releases/download/%s/%s-%s-%s.%s",
		repo, release, program, goos, goarch, ext)
}

// Run checks for a newer release of program and installs it in place,
// reporting progress on out.
func Run(program string, out io.Writer) error {
	fmt.Fprintf(out, "Current version: %s-%s\n", version.Version, version.CommitHash)

	client := http.DefaultClient
	latest, err := LatestRelease(client, version.GithubRepo)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Latest release: %s\n", latest)

	switch semver.Compare(latest, version.Version) {
	case -1:
		fmt.Fprintln(out, "You have a newer version than the latest release.")
		return nil
	case 0:
		fmt.Fprintln(out, "Already up to date.")
		return nil
	case 1:
		fmt.Fprintln(out, "New version available, upgrading...")
		if version.Version == "v0.0.0" {
			fmt.Fprint(out, "Development build detected, press Enter to proceed: ")
			bufio.NewReader(os.Stdin).ReadBytes('\n')
		}
	}

	downloadURL := AssetURL(version.GithubRepo, latest, program, runtime.GOOS, runtime.GOARCH)

	opts := selfupdate.Options{}
	if err := opts.CheckPermissions(); err != nil {
		fmt.Fprintf(out, "Cannot update in place (permission denied).\nDownload manually: %s\n", downloadURL)
		return nil
	}

	fmt.Fprintf(out, "Downloading %s...\n", downloadURL)
	resp, err := client.Get(downloadURL)
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download returned HTTP %d", resp.StatusCode)
	}

	r, err := xz.NewReader(resp.Body)
	if err != nil {
		return fmt.Errorf("xz decompression failed: %w", err)
	}
	if err := selfupdate.Apply(r, opts); err != nil {
		return fmt.Errorf("update failed: %w", err)
	}

	fmt.Fprintf(out, "Updated to %s successfully.\n", latest)
	return nil
}
