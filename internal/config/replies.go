package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Replies holds the bot's canned reply texts. Deployments can override
// any of them from a YAML file without rebuilding.
type Replies struct {
	Start        string `yaml:"start"`
	Help         string `yaml:"help"`
	BadLink      string `yaml:"bad_link"`
	PrivateLink  string `yaml:"private_link"`
	Banned       string `yaml:"banned"`
	BatchUsage   string `yaml:"batch_usage"`
	BatchRunning string `yaml:"batch_running"`
	NoBatch      string `yaml:"no_batch"`
	CancelAck    string `yaml:"cancel_ack"`
	CancelDup    string `yaml:"cancel_dup"`
	Working      string `yaml:"working"`
}

// DefaultReplies returns the built-in reply texts.
func DefaultReplies() *Replies {
	return &Replies{
		Start:        "Hi! Send me a t.me post link and I will save its content here.\nUse /batch_download <from-link> <to-link> for a range.",
		Help:         "Send a message link like https://t.me/channel/123 and I will copy that post to you.\nCommands:\n/batch_download <from> <to> - save a range of posts\n/cancel - stop a running batch\n/status - show whether a batch is running",
		BadLink:      "That does not look like a message link. Expected something like https://t.me/channel/123.",
		PrivateLink:  "Links to private channels (t.me/c/...) are not supported.",
		Banned:       "You are not allowed to use this bot.",
		BatchUsage:   "Usage: /batch_download <from-link> <to-link>\nBoth links must point to the same channel.",
		BatchRunning: "You already have a batch running. Use /cancel to stop it first.",
		NoBatch:      "No batch is running.",
		CancelAck:    "Cancelling after the current message...",
		CancelDup:    "Cancellation is already pending.",
		Working:      "Working on it...",
	}
}

// LoadReplies reads reply overrides from a YAML file and merges them
// over the defaults. Empty fields in the file keep their default text.
// An empty path returns the defaults unchanged.
func LoadReplies(path string) (*Replies, error) {
	replies := DefaultReplies()
	if path == "" {
		return replies, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read replies file: %w", err)
	}

	var override Replies
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("parse replies file: %w", err)
	}

	merge(&replies.Start, override.Start)
	merge(&replies.Help, override.Help)
	merge(&replies.BadLink, override.BadLink)
	merge(&replies.PrivateLink, override.PrivateLink)
	merge(&replies.Banned, override.Banned)
	merge(&replies.BatchUsage, override.BatchUsage)
	merge(&replies.BatchRunning, override.BatchRunning)
	merge(&replies.NoBatch, override.NoBatch)
	merge(&replies.CancelAck, override.CancelAck)
	merge(&replies.CancelDup, override.CancelDup)
	merge(&replies.Working, override.Working)

	return replies, nil
}

func merge(dst *string, val string) {
	if val != "" {
		*dst = val
	}
}
