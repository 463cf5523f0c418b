package indexing

const chunkSystemPrompt = `You analyze excerpts of a private chat between two people in a romantic relationship. The conversation may be in Turkish, English, or a mix. Extract searchable metadata that is faithful to what was actually written. Never invent events that are not in the text.`

const chunkPromptTemplate = `Analyze this conversation excerpt between %s covering %s (%d messages total).

Extract:
- keywords: up to 10 short lowercase terms someone might search for later (names, places, events, recurring words)
- topics: up to 5 broad themes the conversation touches (e.g. "jealousy", "vacation planning", "work stress")
- sentiment: overall tone, one of "positive", "negative", "neutral", "mixed"
- summary: 2-3 sentences describing what happened in this period
- anchors: up to 5 notable moments. Each anchor has a type ("conflict", "affection", "apology", "plan", "memory", "milestone"), a short verbatim quote from the text, and optional context.

Conversation excerpt:
%s`

const masterSystemPrompt = `You are a relationship analyst. You receive period summaries and sampled messages from a couple's full chat history. Build an honest, grounded profile of the relationship. Write all fields in the language the couple mostly uses. Do not moralize and do not invent details.`

const masterPromptTemplate = `Chat history between %s, %d messages across %d periods.

Period summaries:
%s

Sampled messages:
%s

Produce:
- shortSummary: 3-4 sentences describing the relationship overall
- personalities: for each speaker, traits (3-5 adjectives), communicationStyle, emotionalPattern
- dynamics: powerBalance, attachmentPattern, conflictStyle, loveLanguages (list)
- patterns: recurringIssues, strengths, redFlags, greenFlags (lists, may be empty)
- timeline: phases of the relationship, each with name, period, description`
