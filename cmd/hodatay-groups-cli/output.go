package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/kgellert/hodatay-groups/internal/groups"
	"github.com/kgellert/hodatay-groups/internal/messages"
)

const timeLayout = "2006-01-02 15:04:05"

func writeJSON(w io.Writer, payload any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

func writePlain(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	return table
}

func writeGroupTable(w io.Writer, gs []groups.Group) {
	table := newTable(w, []string{"ID", "Name", "Description", "Created"})
	for _, g := range gs {
		table.Append([]string{g.ID, g.Name, g.Description, formatTime(g.CreatedAt)})
	}
	table.Render()
}

func writeGroupDetail(w io.Writer, g groups.Group) error {
	return writePlain(w, "id: %s\nname: %s\ndescription: %s\nicon_url: %s\ncreated_at: %s\n",
		g.ID, g.Name, g.Description, g.IconURL, formatTime(g.CreatedAt))
}

func writeMessageTable(w io.Writer, msgs []messages.Message) {
	table := newTable(w, []string{"Time", "User", "Content", "File"})
	for _, m := range msgs {
		table.Append([]string{formatTime(m.CreatedAt), m.User, m.Content, fileOf(m)})
	}
	table.Render()
}

func formatMessageLine(m messages.Message) string {
	line := fmt.Sprintf("[%s] %s: %s", formatTime(m.CreatedAt), m.User, m.Content)
	if f := fileOf(m); f != "" {
		line += " <" + f + ">"
	}
	return line
}

func fileOf(m messages.Message) string {
	if m.File == nil {
		return ""
	}
	return *m.File
}

func formatTime(t time.Time) string {
	return t.Local().Format(timeLayout)
}
