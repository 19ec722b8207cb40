/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package logstream carries log lines from a background run to a foreground
// observer.
//
// The background side writes lines into a Stream and closes it when the run
// ends, which delivers a single Done event. The foreground side polls with a
// short timeout, keeps the most recent lines in a Display and stops after the
// Done event:
//
//	s := logstream.New(0)
//	run := logstream.Start(ctx, s, slog.LevelInfo, func(ctx context.Context) (*crew.RunResult, error) {
//		return executor.Run(ctx, repo, issue)
//	})
//	d := logstream.NewDisplay(60)
//	logstream.Observe(s, 500*time.Millisecond, d, func(d *logstream.Display) {
//		fmt.Println(d.Lines()[len(d.Lines())-1])
//	})
//	res, err := run.Wait()
//
// Start captures what the run logs through the context's clog logger. Direct
// writes to os.Stdout and os.Stderr bypass the stream.
package logstream
