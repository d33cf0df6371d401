package providers

import (
	"errors"
	"fmt"
	"sort"
	"spinlog/internal/structures"
	"strings"

	"github.com/gookit/validate"
)

type CnfValidator struct {
	conf *structures.Config
}

func NewCnfValidator(conf *structures.Config) *CnfValidator {
	return &CnfValidator{conf: conf}
}

// Validate runs the struct-tag rules plus the cross-field checks the tags
// cannot express. All problems are collected and reported in one error so a
// broken deployment fails fast with the complete list.
func (cv *CnfValidator) Validate() error {
	v := validate.Struct(cv.conf)
	var problems []string

	if !v.Validate() {
		for field, msgs := range v.Errors.All() {
			for _, msg := range msgs {
				problems = append(problems, fmt.Sprintf("%s: %s", field, msg))
			}
		}
	}

	problems = append(problems, cv.checkStore()...)
	problems = append(problems, cv.checkUsers()...)

	if len(problems) > 0 {
		sort.Strings(problems)
		return errors.New("invalid configuration:\n  " + strings.Join(problems, "\n  "))
	}
	return nil
}

func (cv *CnfValidator) checkStore() []string {
	var problems []string
	switch cv.conf.Store.Backend {
	case "file":
		if cv.conf.Store.File.Dir == "" {
			problems = append(problems, "store.file.dir: required for the file backend")
		}
	case "github":
		if cv.conf.Store.GitHub.Repo == "" {
			problems = append(problems, "store.github.repo: required for the github backend")
		} else if !strings.Contains(cv.conf.Store.GitHub.Repo, "/") {
			problems = append(problems, "store.github.repo: must be owner/repo")
		}
		if cv.conf.Store.GitHub.Token == "" {
			problems = append(problems, "store.github.token: required for the github backend")
		}
	}
	return problems
}

func (cv *CnfValidator) checkUsers() []string {
	var problems []string
	if len(cv.conf.Spotify.Users) == 0 {
		problems = append(problems, "spotify.users: at least one tracked user is required")
	}
	for id, user := range cv.conf.Spotify.Users {
		if strings.TrimSpace(id) == "" {
			problems = append(problems, "spotify.users: empty user id")
		}
		if user.RefreshToken == "" {
			problems = append(problems, fmt.Sprintf("spotify.users.%s.refreshToken: required", id))
		}
	}
	return problems
}
