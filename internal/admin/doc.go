// Package admin implements the administrator views' logic: PDF upload into a
// document context and the statistics dashboard.
//
// # Upload
//
//	up := admin.NewUploader(client, logger)
//	msg, err := up.Upload(ctx, "ley-20744.pdf", "laboral")
//
// The file is checked locally (exists, .pdf extension, PDF magic bytes)
// before anything is sent. Backend failures come back as errors whose text is
// suitable for display via api.Message.
//
// # Dashboard
//
// Dashboard.Load fetches every widget concurrently. Each widget degrades to
// "no data" on its own, so one failing endpoint never blanks the page.
// Fully successful loads are cached for the configured TTL.
package admin
