package mcpserver

// CaseFormatContract describes the case-study document format that LLM
// consumers should follow when creating cases.
const CaseFormatContract = `# Casefolio Case Format

Each case study is one file in the content directory. The filename stem is
the slug: ` + "`" + `intake-redesign.mdx` + "`" + ` is served at ` + "`" + `/case/intake-redesign` + "`" + `.

## Structure

` + "```" + `markdown
---
title: Intake redesign              # shown on cards and the detail page
summary: One-sentence teaser        # shown on cards
sector: [Health, Finance]           # tag list, or a single string
category: Product                   # tag list, or a single string
role: [Lead designer, Research]     # tag list, or a single string
featured: true                      # featured cases lead the home page
cover: /images/intake/cover.png     # card image, site path
date: 2024-03-01                    # preferred ordering key
year: 2024                          # used when date is absent
draft: false                        # true hides the case everywhere
---

Body in Markdown (GitHub-flavored). Images are plain Markdown images or
<img> tags; they become the case's carousel.
` + "```" + `

## Rules

1. Frontmatter fences (` + "`" + `---` + "`" + `) must open the file.
2. Tag fields accept a list or a single string; empty entries are dropped.
3. ` + "`" + `year` + "`" + ` is an integer or a four-digit string. Anything else is ignored.
4. Ordering is newest first: ` + "`" + `date` + "`" + `, then January 1st of ` + "`" + `year` + "`" + `,
   then the last four-digit run in the year label.
5. Only ` + "`" + `draft: true` + "`" + ` (a real boolean) hides a case.
6. A ` + "`" + `slug` + "`" + ` key in frontmatter is ignored; the filename decides.
7. Slugs use letters, digits, dashes and underscores.

## Images

- Upload with the ` + "`" + `upload_asset` + "`" + ` tool; it returns a Markdown snippet.
- Reference images by site path: ` + "`" + `![Flow](/uploads/flow.png)` + "`" + `.
- Optional hints on <img>: ` + "`" + `data-aspect="4/3"` + "`" + `, ` + "`" + `data-fit="cover"` + "`" + `,
  ` + "`" + `data-unframed` + "`" + `.
`
