package mcpserver

// DigestFormatContract describes the layout of a generated digest so that
// LLM consumers can navigate or parse it.
const DigestFormatContract = `# Vault Digest Format

A digest is one Markdown document that concatenates every eligible note of
the vault. It is regenerated wholesale; never edit it by hand.

## Layout

` + "```" + `markdown
---
title: Vault Digest
generated: 2025-06-01T12:00:00Z
includeContent: true
sort: path
exclude: Templates, MOC
---

# Vault Digest

## Contents

- [[folder/first.md]]
- [[second.md]]

## first

**Path:** [[folder/first.md]] · **Modified:** 2025-05-30T09:12:44.120Z · **Created:** 2025-01-02T10:00:00.000Z

Note body without its own frontmatter.

---

## second

**Path:** [[second.md]] · **Modified:** 2025-05-31T18:40:03.000Z

Another body.

---

` + "```" + `

## Rules

1. The header block lists the options the digest was generated with. The
   destination path is not part of it.
2. ` + "`" + `## Contents` + "`" + ` lists one ` + "`" + `[[path]]` + "`" + ` per section, in section order.
3. Every section opens with a heading (level 2 by default) holding the note
   name, then a metadata line starting with ` + "`" + `**Path:**` + "`" + `.
4. Modified and created times are UTC ISO-8601 with milliseconds
   (` + "`" + `YYYY-MM-DDTHH:MM:SS.mmmZ` + "`" + `) and are omitted when unknown.
5. Bodies longer than the byte limit are cut to half the limit and prefixed with
   a truncation notice.
6. With content disabled, sections carry only the heading and metadata line.
7. Notes whose read failed under the skip policy carry a read-failure notice
   instead of a body.
`
