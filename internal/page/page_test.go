package page

import (
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/ngenohkevin/racetime_clock/internal/instant"
	"github.com/ngenohkevin/racetime_clock/internal/localize"
	"github.com/ngenohkevin/racetime_clock/internal/timer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const racePage = `<html><body>
<ul id="entrants">
  <li><time class="autotick" datetime="2024-06-01T17:00:00Z">0:00:00.0</time></li>
  <li><time class="autotick" datetime="who knows">stale</time></li>
  <li><time class="autotick" datetime="2024-06-01T18:00:05Z" data-latency="-300">0:00:00.0</time></li>
</ul>
<p>Opened <time class="datetime" datetime="2024-06-01T16:00:00Z">raw</time></p>
<div id="chat"></div>
</body></html>`

var now = time.Date(2024, 6, 1, 18, 0, 0, 0, time.UTC)

func refresh(targets []timer.Target) []timer.Result {
	r := timer.NewRegistry()
	for _, t := range targets {
		r.Add(t)
	}
	return timer.NewEngine(r, timer.WithLocation(time.UTC)).RefreshAll(now)
}

func TestTimersRenderInPlace(t *testing.T) {
	p, err := ParseString(racePage)
	require.NoError(t, err)

	targets := p.Timers()
	require.Len(t, targets, 3)

	results := refresh(targets)
	assert.True(t, results[0].OK())
	assert.True(t, errors.Is(results[1].Err, instant.ErrMalformedInstant))
	assert.True(t, results[2].OK())

	body, err := p.Body()
	require.NoError(t, err)
	assert.Contains(t, body, `<time class="autotick" datetime="2024-06-01T17:00:00Z">1:00:00<small>.0</small></time>`)
	assert.Contains(t, body, `<time class="autotick" datetime="who knows">stale</time>`)
	assert.Contains(t, body, `-0:00:05<small>.3</small>`)
}

func TestRemovedTimerIsSkipped(t *testing.T) {
	p, err := ParseString(racePage)
	require.NoError(t, err)

	targets := p.Timers()
	assert.Equal(t, 1, p.Remove("#entrants li:first-child"))

	results := refresh(targets)
	assert.True(t, errors.Is(results[0].Err, timer.ErrDetached))
	assert.True(t, results[2].OK())
}

func TestAppendReturnsNewTimers(t *testing.T) {
	p, err := ParseString(racePage)
	require.NoError(t, err)

	added, err := p.Append("#chat", `<p>split <time class="autotick" datetime="2024-06-01T17:59:00Z"></time> at <time class="onlytime" datetime="2024-06-01T17:59:00Z"></time></p>`)
	require.NoError(t, err)
	require.Len(t, added, 1)
	assert.Len(t, p.Timers(), 4)

	refresh(added)
	l := localize.New(localize.Locales[1], time.UTC, nil)
	results, err := p.Localize(l, "#chat")
	require.NoError(t, err)
	require.Len(t, results, 1)

	body, err := p.Body()
	require.NoError(t, err)
	assert.Contains(t, body, `0:01:00<small>.0</small>`)
	assert.Contains(t, body, `>17:59:00</time>`)
	// outside the root
	assert.Contains(t, body, `datetime="2024-06-01T16:00:00Z">raw</time>`)

	_, err = p.Append("#missing", "<p></p>")
	assert.True(t, errors.Is(err, ErrNoMatch))
}

func TestLocalizeWholeDocument(t *testing.T) {
	p, err := ParseString(racePage)
	require.NoError(t, err)

	results, err := p.Localize(localize.New(localize.Locales[1], time.UTC, nil), "")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "01/06/2024, 16:00:00", results[0].Text)

	_, err = p.Localize(localize.New(localize.Locales[1], time.UTC, nil), "#nowhere")
	assert.True(t, errors.Is(err, ErrNoMatch))
}
