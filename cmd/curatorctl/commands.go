package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/ad-tracker/newsletter-curator/internal/db/models"
	"github.com/ad-tracker/newsletter-curator/internal/placement"
	"github.com/ad-tracker/newsletter-curator/internal/validation"

	"github.com/spf13/cobra"
)

func currentIssue(store *placement.Store, arg string) (*models.NewsletterIssue, error) {
	issueType, err := models.ParseIssueType(arg)
	if err != nil {
		return nil, err
	}
	issue, ok := store.CurrentIssue(issueType)
	if !ok {
		return nil, fmt.Errorf("no open %s issue", issueType)
	}
	return issue, nil
}

func newItemsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "items <urgent|evergreen>",
		Short: "List the items of the current issue in order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd.Context(), func(s *session) error {
				issue, err := currentIssue(s.store, args[0])
				if err != nil {
					return err
				}
				items, err := s.store.Items(issue.ID)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Issue %s (%s, %s)\n", issue.ID, issue.Type, issue.Status)
				if len(items) == 0 {
					fmt.Fprintln(out, "No items placed.")
					return nil
				}
				fmt.Fprintln(out, renderItems(items))
				return nil
			})
		},
	}
}

func newDraftCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "draft <urgent|evergreen>",
		Short: "Print the plain-text draft of the current issue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd.Context(), func(s *session) error {
				issue, err := currentIssue(s.store, args[0])
				if err != nil {
					return err
				}
				text, err := s.store.DraftText(issue.ID)
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), text)
				return nil
			})
		},
	}
}

func newAvailableCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "available",
		Short: "List favorited videos not placed in any open issue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd.Context(), func(s *session) error {
				if limit <= 0 {
					limit = s.favoritesLimit
				}
				pool, err := s.favorites.ListFavorites(cmd.Context(), limit)
				if err != nil {
					return fmt.Errorf("list favorites: %w", err)
				}

				videos := s.store.AvailableVideos(pool)
				out := cmd.OutOrStdout()
				if len(videos) == 0 {
					fmt.Fprintln(out, "No available videos.")
					return nil
				}
				fmt.Fprintln(out, renderVideos(videos))
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum favorites to consider (defaults to the configured limit)")
	return cmd
}

func newFavoriteCommand(ctx *commandContext) *cobra.Command {
	var (
		title     string
		channel   string
		thumbnail string
		published string
		duration  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "favorite <video-id>",
		Short: "Add or refresh a video in the favorites pool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			videoID := args[0]
			if !validation.IsValidVideoID(videoID) {
				return fmt.Errorf("invalid video id %q", videoID)
			}
			if title == "" {
				return errors.New("--title is required")
			}
			publishedAt := time.Now().UTC()
			if published != "" {
				d, err := models.ParseIssueDate(published)
				if err != nil {
					return fmt.Errorf("invalid --published: %w", err)
				}
				publishedAt = d
			}

			video := models.NewCuratedVideo(videoID, title, channel, "https://www.youtube.com/watch?v="+videoID, publishedAt)
			video.ThumbnailURL = thumbnail
			video.DurationSeconds = int(duration.Seconds())

			return ctx.withSession(cmd.Context(), func(s *session) error {
				if err := s.favorites.UpsertVideo(cmd.Context(), video); err != nil {
					return fmt.Errorf("save favorite: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%s)\n", video.VideoID, video.Title)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Episode title")
	cmd.Flags().StringVar(&channel, "channel", "", "Channel or podcast name")
	cmd.Flags().StringVar(&thumbnail, "thumbnail", "", "Thumbnail URL")
	cmd.Flags().StringVar(&published, "published", "", "Publish date, YYYY-MM-DD (defaults to now)")
	cmd.Flags().DurationVar(&duration, "duration", 0, "Episode length, e.g. 1h32m")
	return cmd
}

func renderItems(items []*models.NewsletterItem) string {
	rows := make([][]string, 0, len(items))
	for _, it := range items {
		title, podcast := "", it.Fields.PodcastName
		if it.Video != nil {
			title = it.Video.Title
			if podcast == "" {
				podcast = it.Video.ChannelName
			}
		}
		rows = append(rows, []string{
			strconv.Itoa(it.Position),
			it.VideoID,
			title,
			podcast,
			it.Fields.GuestName,
		})
	}
	return renderTable(
		[]string{"#", "Video", "Title", "Podcast", "Guest"},
		rows,
		[]columnAlignment{alignRight},
	)
}

func renderVideos(videos []*models.CuratedVideo) string {
	rows := make([][]string, 0, len(videos))
	for _, v := range videos {
		rows = append(rows, []string{
			v.VideoID,
			v.Title,
			v.ChannelName,
			v.PublishedAt.Format("2006-01-02"),
		})
	}
	return renderTable([]string{"Video", "Title", "Channel", "Published"}, rows, nil)
}
