package stats

import "time"

// Wire shapes of the GitHub REST payloads we decode. Only the fields
// the resolver normalizes are listed.

type profilePayload struct {
	Login       string    `json:"login"`
	Name        string    `json:"name"`
	Bio         string    `json:"bio"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	Followers   int       `json:"followers"`
	Following   int       `json:"following"`
	PublicRepos int       `json:"public_repos"`
	PublicGists int       `json:"public_gists"`
	CreatedAt   time.Time `json:"created_at"`
}

func (p profilePayload) normalize() Profile {
	return Profile{
		Login:       p.Login,
		Name:        p.Name,
		Bio:         p.Bio,
		Description: p.Description,
		Location:    p.Location,
		Followers:   p.Followers,
		Following:   p.Following,
		PublicRepos: p.PublicRepos,
		PublicGists: p.PublicGists,
		CreatedAt:   p.CreatedAt,
	}
}

type repoPayload struct {
	Name            string    `json:"name"`
	StargazersCount uint      `json:"stargazers_count"`
	Language        string    `json:"language"`
	ForksCount      int       `json:"forks_count"`
	OpenIssuesCount int       `json:"open_issues_count"`
	Size            int       `json:"size"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (p repoPayload) normalize() Repository {
	return Repository{
		Name:       p.Name,
		Stars:      p.StargazersCount,
		Language:   p.Language,
		Forks:      p.ForksCount,
		OpenIssues: p.OpenIssuesCount,
		SizeKB:     p.Size,
		UpdatedAt:  p.UpdatedAt,
	}
}

type contributorPayload struct {
	Login         string `json:"login"`
	Contributions int    `json:"contributions"`
}

func (p contributorPayload) normalize() Contributor {
	return Contributor{Login: p.Login, Contributions: p.Contributions}
}

type rateLimitPayload struct {
	Resources struct {
		Core struct {
			Limit     int   `json:"limit"`
			Remaining int   `json:"remaining"`
			Reset     int64 `json:"reset"`
		} `json:"core"`
	} `json:"resources"`
}
