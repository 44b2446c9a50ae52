// Package mirror keeps bare mirrors of repositories under a home directory
// and pushes them to a set of remote targets.
//
// A mirror Job moves through the following states
//
//	start -> mirroring|updating -> pushing-remotes -> done|failed
//
// A repository whose mirror doesn't exist on disk is cloned with
// `git clone --mirror`, an existing mirror is refreshed with
// `git remote update origin --prune` so refs deleted upstream are removed
// locally as well. Mirror is then pushed with `git push --mirror` to every
// remote returned by ResolveRemotes, in order. First failed push stops the job.
//
// Remotes are read from the `.lohr` file committed at HEAD of the repository,
// if its missing or empty, default remote stems are used. Additional remote
// stems are always appended.
//
// # Logging:
//
// package takes slog reference for logging and prints logs up to 'trace' level
//
// Example:
//
//	loggerLevel  = new(slog.LevelVar)
//	levelStrings = map[string]slog.Level{
//		"trace": slog.Level(-8),
//		"debug": slog.LevelDebug,
//		"info":  slog.LevelInfo,
//		"warn":  slog.LevelWarn,
//		"error": slog.LevelError,
//	}
//
//	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//		Level: loggerLevel,
//	}))
//	loggerLevel.Set(levelStrings["trace"])
//
//	job := mirror.NewJob(repo, mirror.Config{Home: "/var/lib/lohr", Settings: s, Log: logger})
//	if err := job.Run(ctx); err != nil {
//		panic(err)
//	}
package mirror
