package app

import "html/template"

// landingIntro returns the introduction shown on the WikiHop landing page.
func landingIntro() template.HTML {
	return `
<section class="bg-slate-800 rounded-lg border border-slate-700 p-6">
  <h2 class="text-2xl font-bold text-white mb-3">How to play</h2>
  <p class="text-slate-300 mb-3"><strong>WikiHop</strong> drops you on a start page of a game wiki and names a target page. Reach the target by clicking only the links inside the articles.</p>
  <ul class="list-disc list-inside text-slate-300 space-y-1">
    <li>Pick a game from the tabs above, or one of the <a class="text-blue-400" href="/wiki-gg">Wiki.gg wikis</a>.</li>
    <li>Every click counts. Fewer hops beat a faster time.</li>
    <li>Switching wikis starts a new round: the current start and target are cleared.</li>
  </ul>
</section>`
}

var legalPages = map[string]struct {
	Title      string
	Paragraphs []string
}{
	"terms": {
		Title: "Terms of Service",
		Paragraphs: []string{
			"WikiHop is a free game provided as is, without warranty of any kind.",
			"Wiki content shown during a round belongs to its respective contributors and is used under the wiki's license. WikiHop is not affiliated with the wikis it links to.",
		},
	},
	"privacy": {
		Title: "Privacy Policy",
		Paragraphs: []string{
			"WikiHop does not create accounts and stores no personal data on its servers.",
			"Request logs containing IP addresses are kept for operational purposes only. Pages fetched during a round are requested by your browser directly from the wiki.",
		},
	},
}
