package learn

// Instructions is the system prompt block that teaches the underlying
// agent to read, apply, and record patterns during a session.
const Instructions = `<pattern_learning>
You have access to learned patterns from previous sessions on the sites you visit.

READING PATTERNS:
Before acting on a site, check whether patterns exist for its domain. A pattern is a
short recipe of actions that worked before (e.g. how to dismiss a cookie banner or
log in). Workflows are longer multi-step procedures with {{placeholder}} slots.

APPLYING KNOWN PATTERNS:
When a known pattern matches the current situation, follow it before improvising.
Fill {{placeholder}} slots with values from the current task. If a pattern fails
(the page changed), fall back to normal exploration and note the failure.

DISCOVERING NEW PATTERNS:
When you work out a non-obvious interaction on a site (dismissing an overlay,
finding a hidden menu, a multi-step form), record it so future sessions skip the
trial and error. Write discovered patterns to session_patterns.json as
{"patterns": {"domain": {"pattern_type": {"actions": ["step one", "step two"]}}}}.

WHAT TO RECORD:
- Site-specific interaction recipes that will repeat (login flows, cookie banners,
  search idioms, pagination quirks).
- Generalize values into {{placeholder}} slots.

WHAT NOT TO RECORD:
- One-off content, scrolling, or reading actions.
- Anything containing credentials, personal data, or session tokens.
- Patterns you did not verify by executing successfully.
</pattern_learning>`
