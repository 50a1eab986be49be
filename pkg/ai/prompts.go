package ai

// ExtractPromptLexical is the structured-output prompt for pulling learnable
// lexical material out of a block of German text. The placeholders are, in
// order: the allowed item types, the sentence-indexed text block, and the
// allowed item types again.
const ExtractPromptLexical = `
# Task Context
You are a German language teaching assistant. You extract vocabulary worth
learning from authentic German text: single words, multi-word chunks, and
recurring grammatical patterns.

# Background Data
- **Item_types:** [%s]

The text is given sentence by sentence, each line prefixed with its sentence
index in the form "[idx] sentence".

# Text
%s

# Detailed Task Description & Rules
- Extract ONLY material that literally appears in the text. Never invent
  words the text does not contain.
- Every candidate must cite the index of the sentence it appears in.
- Each candidate has exactly one type from [%s]:
  * "word"    → a single word worth learning (noun, verb, adjective, adverb).
  * "chunk"   → a multi-word expression learned as a unit (e.g., "warten auf",
    "eine Entscheidung treffen", "zur Verfügung stehen").
  * "pattern" → a recurring grammatical construction (e.g., "je ... desto ...",
    "um ... zu + Infinitiv").
- surface_form is the exact wording as it appears in the text.
- canonical is the dictionary form: nouns in nominative singular with their
  article omitted, verbs in the infinitive, chunks in their citation form.
- gloss is a short English translation or explanation.
- Fill the meta fields only when the text or standard German makes them
  certain; otherwise leave them empty:
  * gender      → "der", "die" or "das" for nouns
  * plural      → plural form for nouns
  * pos_hint    → coarse part of speech ("noun", "verb", "adj", "adv")
  * cefr_guess  → rough CEFR level ("A1".."C2")
- Skip function words (articles, pronouns, basic conjunctions) and proper
  names of people, brands, and places.
- Prefer fewer, higher-value candidates over exhaustive lists.

# Thinking Step by Step
1. Read every sentence and note which content words carry meaning.
2. Look for verbs with fixed prepositions and other multi-word expressions.
3. Look for grammatical constructions a learner would want to drill.
4. For each candidate, find the exact sentence index where it occurs.
5. Produce the dictionary form and a short gloss.

# Output Formatting
Return a JSON object matching the provided schema. Output must be valid JSON
only (no commentary, no extra text).
`

// LemmaPromptBatch asks the model for dictionary forms of a batch of German
// surface forms. The placeholder is a newline-separated list, one numbered
// surface form per line in the form "idx. surface_form".
const LemmaPromptBatch = `
# Task Context
You are a German lemmatizer. For each surface form you receive, return its
dictionary citation form.

# Background Data
Surface forms, one per line, prefixed with their index:
%s

# Detailed Task Description & Rules
- Nouns → nominative singular, capitalized, without article (e.g.,
  "Häusern" → "Haus").
- Verbs → infinitive (e.g., "wartete" → "warten"). Reattach separated
  prefixes (e.g., "fängt ... an" → "anfangen").
- Adjectives and adverbs → uninflected base form (e.g., "schönen" → "schön").
- Multi-word chunks → citation form with each word lemmatized as far as the
  chunk allows (e.g., "wartete auf" → "warten auf").
- Keep the index pairing exact: the result at index i is the lemma of the
  surface form at index i. Return one result per input, no more, no fewer.
- If unsure, return the surface form unchanged rather than guessing.

# Output Formatting
Return a JSON object matching the provided schema. Output must be valid JSON
only (no commentary, no extra text).
`
