package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	// Japanese CLI text. go-l10n picks the language from LANGUAGE/LC_ALL/LANG.
	l10n.Register("ja", l10n.LexiconMap{
		// Root command
		"Frame-accurate video review with frame-rate layers and bookmarks": "フレームレートレイヤーとブックマークによるコマ単位の動画レビュー",

		"Path to config file":                     "設定ファイルのパス",
		"config file %s not found, using defaults": "設定ファイル %s が見つからないため既定値を使用します",

		// Subcommands
		"Run the review server (default)":                       "レビューサーバーを起動（既定）",
		"Run the review server with MCP tools on stdin/stdout":  "MCPツールを標準入出力で提供してレビューサーバーを起動",
		"Print the frame start times of one layer":              "レイヤーの各フレーム開始時刻を表示",
		"Show the duration, frame rate and size of an MP4 file": "MP4ファイルの長さ・フレームレート・サイズを表示",

		// frames flags
		"Frame rate in frames per second":         "フレームレート（fps）",
		"Video duration in seconds":               "動画の長さ（秒）",
		"Time of frame 0 in seconds":              "フレーム0の時刻（秒）",
		"Read the duration from an MP4 file":      "MP4ファイルから長さを読み取る",
		"First frame to print":                    "表示する最初のフレーム",
		"Maximum number of frames (0 prints all)": "表示する最大フレーム数（0はすべて）",

		// Output and errors
		"FRAME\tTIME\tLABEL":              "フレーム\t時刻\tラベル",
		"--from must be between 0 and %d": "--from は0から%dの範囲で指定してください",
		"a video file is required":        "動画ファイルを指定してください",
	})
}
