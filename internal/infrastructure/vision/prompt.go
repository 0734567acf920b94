package vision

// analysisPrompt is the fixed instruction sent with every image. The key
// contract is stated explicitly so the reply can be parsed mechanically;
// url fields are never read from the reply even if the model adds them.
const analysisPrompt = `Analyze this image and provide detailed information about:
1) Text elements and their fonts, 2) Background elements, 3) Graphical elements, 4) Color palette.

Respond with a single JSON object using exactly these keys:
{
  "elements": {
    "text":       [{"name": "...", "description": "..."}],
    "background": [{"name": "...", "description": "..."}],
    "graphics":   [{"name": "...", "description": "..."}],
    "hero":       [{"name": "...", "description": "..."}]
  },
  "fonts": [{"name": "...", "category": "serif|sans-serif|display|monospace|handwriting",
             "style": "...", "weight": "...",
             "sources": [{"provider": "...", "url": "..."}],
             "import": "<link or @import snippet>"}],
  "colors": [{"hex": "#rrggbb", "rgb": "r,g,b", "name": "..."}]
}

Omit categories that do not apply. Do not include any text outside the JSON object.`
