package mcpserver

// RecordFormatContract describes the JSON shape of an extracted record so
// LLM consumers know what to expect from the extraction tools.
const RecordFormatContract = `# Ansuz Record Format

Every extracted record is a JSON object with exactly these keys, in this order:

` + "```" + `json
{
  "title": "Heading title",          // null when no heading encloses the target
  "level": 2,                        // heading depth, null without a heading
  "todo": "TODO",                    // null when absent
  "priority": "A",                   // single cookie letter, null when absent
  "tags": ["work", "deep"],          // own tags, plus inherited when requested
  "filetags": ["agenda"],            // document-level #+FILETAGS
  "scheduled": "<2026-03-01 Sun>",   // raw timestamp text, null when absent
  "deadline": "[2026-03-05 Thu]",    // raw timestamp text, null when absent
  "archived": false,
  "commented": false,
  "outline_path": ["Projects"],      // ancestor titles, outermost first
  "properties": [["OWNER", "ada"]],  // drawer entries as [key, value] pairs
  "content": "Body text."            // null when the section has no content
}
` + "```" + `

## Rules

1. **Nullable fields are explicit.** Absent values are JSON null, never omitted.
2. **List fields are never null.** Empty lists serialize as ` + "`" + `[]` + "`" + `.
3. **Properties preserve document order and duplicates.** Each entry is a
   two-element array, not an object key, so repeated keys survive.
4. **Tag order** is own tags first (left to right), then inherited tags from
   the nearest ancestor outward, first occurrence wins.
5. **Timestamps are verbatim.** Bracket style (` + "`" + `<...>` + "`" + ` or ` + "`" + `[...]` + "`" + `) is preserved
   exactly as written in the document.
6. **Batch identifiers** pair a per-run counter with a slug derived from the
   outline path. Slugs keep their original case; non-alphanumeric runs become
   a single underscore.

## Match expressions

Tools accepting a ` + "`" + `matcher` + "`" + ` argument use tag match syntax:

- ` + "`" + `work` + "`" + ` selects headings carrying the tag.
- ` + "`" + `+work-urgent` + "`" + ` requires work and excludes urgent.
- ` + "`" + `TODO=DONE` + "`" + ` selects by todo keyword.
- ` + "`" + `a|b` + "`" + ` is an OR of alternatives.
`
