// Package dashboard assembles what the dashboard renders from the session
// and the linked-account state.
package dashboard

import (
	"net/url"

	"replica-auth/internal/link"
	"replica-auth/internal/session"
)

const (
	ParamSubjectID = "user_id"
	ParamTeamID    = "team_id"
)

// SurfaceConfig describes an embedded third-party application.
type SurfaceConfig struct {
	Name    string
	BaseURL string
	// NeedsTeam marks surfaces that also receive the linked team id.
	NeedsTeam bool
}

// Surface is an embedded application ready to render: either a URL or a
// call to action.
type Surface struct {
	Name         string `json:"name"`
	URL          string `json:"url,omitempty"`
	CallToAction string `json:"callToAction,omitempty"`
}

type User struct {
	SubjectID string `json:"subjectId"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

type View struct {
	User     User                `json:"user"`
	Linked   *link.LinkedAccount `json:"linkedAccount,omitempty"`
	Notice   *link.Notification  `json:"notice,omitempty"`
	Surfaces []Surface           `json:"surfaces"`
	LinkPath string              `json:"linkPath"`
}

// NewView builds the dashboard for sess. Surfaces are parameterized only
// when acct is active.
func NewView(sess session.Session, acct *link.LinkedAccount, notice *link.Notification, surfaces []SurfaceConfig, linkPath string) View {
	v := View{
		User: User{
			SubjectID: sess.SubjectID,
			Name:      sess.Greeting(),
			Email:     sess.Email,
			AvatarURL: sess.AvatarURL,
		},
		Linked:   acct,
		Notice:   notice,
		Surfaces: make([]Surface, 0, len(surfaces)),
		LinkPath: linkPath,
	}
	for _, sc := range surfaces {
		v.Surfaces = append(v.Surfaces, BuildSurface(sc, sess.SubjectID, acct))
	}
	return v
}

// BuildSurface appends the subject id, and the team id where required, to
// the surface's base URL.
func BuildSurface(sc SurfaceConfig, subjectID string, acct *link.LinkedAccount) Surface {
	s := Surface{Name: sc.Name}

	if acct == nil || !acct.IsActive {
		s.CallToAction = "Connect your workspace to use " + sc.Name + "."
		return s
	}

	base, err := url.Parse(sc.BaseURL)
	if sc.BaseURL == "" || err != nil {
		s.CallToAction = sc.Name + " is not configured."
		return s
	}

	q := base.Query()
	q.Set(ParamSubjectID, subjectID)
	if sc.NeedsTeam {
		q.Set(ParamTeamID, acct.ExternalTeamID)
	}
	base.RawQuery = q.Encode()

	s.URL = base.String()
	return s
}
