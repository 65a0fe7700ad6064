package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/gabriel-vasile/mimetype"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/kgellert/hodatay-groups/internal/client"
	"github.com/kgellert/hodatay-groups/internal/messages"
	"github.com/kgellert/hodatay-groups/internal/uploads"
	"github.com/kgellert/hodatay-groups/internal/ws"
)

func newMessagesCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "messages",
		Short: "Read group messages",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list <group-id>",
		Short: "List the messages of a group, oldest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			msgs, err := opts.client().ListMessages(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if opts.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), msgs)
			}
			writeMessageTable(cmd.OutOrStdout(), msgs)
			return nil
		},
	})

	return cmd
}

func newSendCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "send <group-id> <text>",
		Short: "Send a text message",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := opts.displayName()
			if err != nil {
				return err
			}
			return opts.client().SendMessage(cmd.Context(), args[0], user, args[1])
		},
	}
}

func newSendImageCmd(opts *options) *cobra.Command {
	var content string

	cmd := &cobra.Command{
		Use:   "send-image <group-id> <file>",
		Short: "Upload an image and post it to a group",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := opts.displayName()
			if err != nil {
				return err
			}

			mt, err := mimetype.DetectFile(args[1])
			if err != nil {
				return fmt.Errorf("detect %s: %w", args[1], err)
			}

			f, err := os.Open(args[1])
			if err != nil {
				return err
			}
			defer f.Close()

			info, err := f.Stat()
			if err != nil {
				return err
			}

			c := opts.client()

			cfg, err := c.Config(cmd.Context())
			if err != nil {
				return fmt.Errorf("load server limits: %w", err)
			}
			if err := checkImage(cfg, info.Size(), mt.String()); err != nil {
				return fmt.Errorf("%s: %w", args[1], err)
			}

			if err := c.SendImage(cmd.Context(), args[0], user, content, mt.String(), f); err != nil {
				return err
			}
			return writePlain(cmd.OutOrStdout(), "sent %s (%s)\n", args[1], mt.String())
		},
	}

	cmd.Flags().StringVar(&content, "content", "", "caption sent with the image")

	return cmd
}

// checkImage applies the server's upload limits before any bytes are sent.
func checkImage(cfg client.PublicConfig, size int64, contentType string) error {
	if size == 0 {
		return uploads.ErrEmptyBody
	}
	if cfg.Uploads.MaxImageSize > 0 && size > cfg.Uploads.MaxImageSize {
		return uploads.ErrPayloadTooLarge
	}
	if !lo.Contains(cfg.AllowedImageTypes, contentType) {
		return fmt.Errorf("%w: %s", uploads.ErrInvalidContentType, contentType)
	}
	return nil
}

func newWatchCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <group-id>",
		Short: "Follow a group's messages as they arrive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seen := make(map[string]struct{})
			out := cmd.OutOrStdout()

			return opts.client().Watch(cmd.Context(), client.Subscription{
				Query: ws.QueryMessagesList,
				Args:  ws.QueryArgs{GroupID: args[0]},
			}, func(data json.RawMessage) error {
				var msgs []messages.Message
				if err := json.Unmarshal(data, &msgs); err != nil {
					return err
				}

				for _, m := range newMessages(msgs, seen) {
					if err := writePlain(out, "%s\n", formatMessageLine(m)); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}

// newMessages returns the messages not yet in seen and records them.
func newMessages(msgs []messages.Message, seen map[string]struct{}) []messages.Message {
	var fresh []messages.Message
	for _, m := range msgs {
		if _, ok := seen[m.ID]; ok {
			continue
		}
		seen[m.ID] = struct{}{}
		fresh = append(fresh, m)
	}
	return fresh
}
