package main

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"docket/internal/ipc"
)

func buildQueueStatusRows(stats map[string]int) [][]string {
	if len(stats) == 0 {
		return nil
	}
	keys := make([]string, 0, len(stats))
	for key := range stats {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	rows := make([][]string, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, []string{formatStatusLabel(key), fmt.Sprintf("%d", stats[key])})
	}
	return rows
}

func buildQueueListRows(items []ipc.QueueItem) [][]string {
	if len(items) == 0 {
		return nil
	}
	sorted := make([]ipc.QueueItem, len(items))
	copy(sorted, items)

	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].ID > sorted[j].ID
		}
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})

	rows := make([][]string, 0, len(sorted))
	for _, item := range sorted {
		name := strings.TrimSpace(item.OriginalName)
		if name == "" {
			if source := strings.TrimSpace(item.SourcePath); source != "" {
				name = filepath.Base(source)
			} else {
				name = "Unknown"
			}
		}
		filed := strings.TrimSpace(item.FinalFile)
		if filed != "" {
			filed = filepath.Base(filed)
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", item.ID),
			name,
			formatStatusLabel(item.Status),
			item.CreatedAt.Local().Format(time.DateTime),
			filed,
		})
	}
	return rows
}

func formatStatusLabel(status string) string {
	status = strings.TrimSpace(status)
	if status == "" {
		return "Unknown"
	}
	words := strings.Split(strings.ReplaceAll(status, "_", " "), " ")
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}
