package mcpserver

// SettingsFormatContract describes the review settings document accepted by
// import_settings and produced by export_settings.
const SettingsFormatContract = `# Review Settings Document

A settings document captures everything needed to resume a review: the
frame-rate layers, their bookmarks, the start offset, the timeline colours and
the keyboard shortcuts. Frame times are never stored; they are recomputed from
frameRate, the video duration and startOffset.

## Structure

` + "```" + `json
{
  "layers": [
    { "frameRate": 23.99, "bookmarkedFrames": [] },
    { "frameRate": 24,    "bookmarkedFrames": [3, 10, 42] }
  ],
  "startOffset": 0.001,
  "colorPalette": {
    "tick": "#000000",
    "bookmark": "#008000",
    "indicator": "#ff0000",
    "background": "#dddddd",
    "overlay": "#ff0000"
  },
  "shortcuts": {
    "playPause": "Space",
    "frameForward": "ArrowRight",
    "frameBackward": "ArrowLeft",
    "bookmarkToggle": "b",
    "directLayerSelect": true
  }
}
` + "```" + `

## Rules

1. **layers** is required and must contain at least one layer.
2. **frameRate** is required per layer, in frames per second, greater than 0 and at most 1000.
3. **bookmarkedFrames** are 0-based frame indices, ascending, without duplicates.
   Indices past the last frame of the current video are dropped on import.
4. **startOffset** is required, in seconds, and must not be negative. Frame i of
   a layer is shown at ` + "`" + `startOffset + i / frameRate` + "`" + `.
5. **colorPalette** is optional. Colours are hex strings (` + "`" + `#rgb` + "`" + ` or ` + "`" + `#rrggbb` + "`" + `).
6. **shortcuts** is optional. When present every action needs a distinct key.
   With directLayerSelect the digits 1-9 are reserved for selecting layers.
7. Unknown fields are rejected.
`
