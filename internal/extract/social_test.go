package extract_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"newsagent/internal/extract"
)

func TestIsProfilePage(t *testing.T) {
	tests := []struct {
		name  string
		url   string
		title string
		want  bool
	}{
		{name: "tweet", url: "https://x.com/someone/status/123", title: "Big model release thread", want: false},
		{name: "x profile", url: "https://x.com/someone", title: "Someone", want: true},
		{name: "x profile title", url: "https://x.com/a/status/1", title: "Someone (@someone) / X", want: true},
		{name: "reddit post", url: "https://reddit.com/r/MachineLearning/comments/abc/title", title: "Interesting paper discussion", want: false},
		{name: "reddit user", url: "https://reddit.com/user/someone", title: "someone overview", want: true},
		{name: "subreddit home", url: "https://reddit.com/r/MachineLearning", title: "Machine Learning", want: true},
		{name: "about title", url: "https://example.com/page", title: "About: the team | about page", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, extract.IsProfilePage(tt.url, tt.title))
		})
	}
}

func TestIsMeaningfulContent(t *testing.T) {
	longContent := "A detailed discussion about the new release, covering benchmarks and caveats."
	require.True(t, extract.IsMeaningfulContent("New model released today", longContent))
	require.False(t, extract.IsMeaningfulContent("short", longContent))
	require.False(t, extract.IsMeaningfulContent("New model released today", "too short"))
	require.False(t, extract.IsMeaningfulContent("New model released today", "Profile page showing follower counts and following lists for the account"))
}

func TestTweetText(t *testing.T) {
	raw := `Don't miss what's happening
[Log in](https://x.com/login)
We just shipped a new firmware update for the laser engraver line.
![Image](https://pbs.twimg.com/img.png)
[someone](https://x.com/someone)
12,345
Views
Trending now
Politics stuff
`
	got := extract.TweetText(raw)
	require.Equal(t, "We just shipped a new firmware update for the laser engraver line.", got)
}

func TestTweetTextTooShort(t *testing.T) {
	require.Equal(t, "", extract.TweetText("Sign up now\n[Log in](https://x.com/login)\nhi"))
}
