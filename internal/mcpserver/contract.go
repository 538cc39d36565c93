package mcpserver

// ItemFormatContract describes the fields and rules LLM consumers should
// follow when creating items.
const ItemFormatContract = `# recall Item Format Contract

An item is a short piece of captured knowledge. Questions asked through the
` + "`" + `ask` + "`" + ` tool are answered only from saved items, so write items that stand on their own.

## Fields

| Field        | Required | Notes                                                  |
|--------------|----------|--------------------------------------------------------|
| title        | yes      | Short and specific; searched by substring              |
| content      | yes      | The body text; searched by substring                   |
| type         | yes      | One of ` + "`" + `note` + "`" + `, ` + "`" + `link` + "`" + `, ` + "`" + `insight` + "`" + `                            |
| source_url   | no       | Absolute URL, mainly for ` + "`" + `link` + "`" + ` items                     |
| tags         | no       | List of short tag names                                |

## Kinds

- **note**: something you wrote down (journal entry, meeting notes, a fact).
- **link**: an external resource worth keeping. Put the URL in ` + "`" + `source_url` + "`" + ` and
  describe why it matters in ` + "`" + `content` + "`" + `.
- **insight**: a conclusion or lesson drawn from other items.

## Tags

1. Tags are identified by their slug: lowercase, whitespace runs become ` + "`" + `-` + "`" + `,
   and every character other than ` + "`" + `a-z` + "`" + `, ` + "`" + `0-9` + "`" + ` and ` + "`" + `-` + "`" + ` is removed.
   ` + "`" + `Deep Work` + "`" + ` and ` + "`" + `deep   work` + "`" + ` are the same tag (` + "`" + `deep-work` + "`" + `).
2. Names whose slug is empty (for example only punctuation or non-Latin script) are ignored.
3. Reuse existing tags; call ` + "`" + `list_tags` + "`" + ` first.

## Search behaviour

- Matching is a case-insensitive substring test, not ranked: ` + "`" + `sleep` + "`" + ` also matches
  "sleeping". Results are newest first.
- ` + "`" + `ask` + "`" + ` picks the longest meaningful word of the question as its search term and
  reads at most 10 matching items.

## Example

` + "```" + `json
{
  "title": "Sleep and caffeine",
  "content": "Coffee after 2pm cost me about an hour of sleep all week.",
  "type": "insight",
  "tags": ["sleep", "health"]
}
` + "```" + `
`
