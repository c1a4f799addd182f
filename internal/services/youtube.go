package services

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	ytapi "github.com/hightemp/youtube-transcript-api-go/api"
	yt "github.com/kkdai/youtube/v2"
)

var youtubeURLPattern = regexp.MustCompile(`(?:youtube\.com/(?:watch\?v=|embed/|shorts/)|youtu\.be/)([\w-]{11})`)

type YouTubeService struct {
	transcriptAPI *ytapi.YouTubeTranscriptApi
	ytClient      *yt.Client
}

func NewYouTubeService() *YouTubeService {
	return &YouTubeService{
		transcriptAPI: ytapi.NewYouTubeTranscriptApi(),
		ytClient: &yt.Client{
			HTTPClient: &http.Client{Timeout: 30 * time.Second},
		},
	}
}

// ParseVideoID pulls the 11-character video id out of a YouTube URL.
func (s *YouTubeService) ParseVideoID(url string) (string, error) {
	matches := youtubeURLPattern.FindStringSubmatch(url)
	if len(matches) < 2 {
		return "", fmt.Errorf("not a valid YouTube URL")
	}
	return matches[1], nil
}

// GetMetadata fetches title and duration for a video material.
func (s *YouTubeService) GetMetadata(ctx context.Context, videoID string) (title string, durationMinutes int, err error) {
	video, err := s.ytClient.GetVideoContext(ctx, videoID)
	if err != nil {
		return "", 0, fmt.Errorf("failed to fetch video metadata: %w", err)
	}

	minutes := int(video.Duration.Minutes())
	if minutes == 0 && video.Duration > 0 {
		minutes = 1
	}
	return video.Title, minutes, nil
}

// GetTranscript fetches captions so question generation also works for
// video materials. Portuguese tracks are preferred, then any language.
func (s *YouTubeService) GetTranscript(videoID string) (string, error) {
	transcript, err := s.transcriptAPI.GetTranscript(videoID, []string{"pt", "pt-BR", "en"})
	if err != nil {
		transcript, err = s.transcriptAPI.GetTranscript(videoID, nil)
		if err != nil {
			return "", fmt.Errorf("no subtitles available for video %s: %w", videoID, err)
		}
	}

	if len(transcript.Entries) == 0 {
		return "", fmt.Errorf("subtitle track is empty")
	}

	var fullText strings.Builder
	for _, entry := range transcript.Entries {
		text := strings.TrimSpace(entry.Text)
		if text == "" {
			continue
		}
		fullText.WriteString(text)
		fullText.WriteString(" ")
	}

	return strings.TrimSpace(fullText.String()), nil
}
