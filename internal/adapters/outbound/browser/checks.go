package browser

import (
	"fmt"
	"strings"

	"github.com/preflightci/preflight/internal/domain"
)

// layoutReport is the shape returned by the in-page layout check script.
type layoutReport struct {
	Overflow     *overflowFinding `json:"overflow"`
	Blank        *blankFinding    `json:"blank"`
	SmallTargets *groupFinding    `json:"smallTargets"`
	LowContrast  *groupFinding    `json:"lowContrast"`
}

type overflowFinding struct {
	ScrollWidth int `json:"scrollWidth"`
	InnerWidth  int `json:"innerWidth"`
}

type blankFinding struct {
	TextLength int `json:"textLength"`
	Rendered   int `json:"rendered"`
}

type groupFinding struct {
	Count   int      `json:"count"`
	Samples []string `json:"samples"`
}

func (r layoutReport) toIssues(viewport string) []domain.Issue {
	var issues []domain.Issue
	add := func(severity, code, message string) {
		issues = append(issues, domain.Issue{
			Severity: severity,
			Category: domain.CategoryLayout,
			Stage:    domain.StageUI,
			Viewport: viewport,
			Code:     code,
			Message:  message,
		})
	}

	if r.Blank != nil {
		add(domain.SeverityError, "blank-page", "page renders no visible content")
	}
	if r.Overflow != nil {
		add(domain.SeverityWarning, "horizontal-overflow",
			fmt.Sprintf("page scrolls horizontally (%dpx content in %dpx viewport)",
				r.Overflow.ScrollWidth, r.Overflow.InnerWidth))
	}
	if r.SmallTargets != nil {
		add(domain.SeverityWarning, "small-touch-target",
			fmt.Sprintf("%d interactive elements below the 44px touch target minimum (%s)",
				r.SmallTargets.Count, strings.Join(r.SmallTargets.Samples, ", ")))
	}
	if r.LowContrast != nil {
		// Heuristic sampling, so false positives are expected; info only.
		add(domain.SeverityInfo, "low-contrast",
			fmt.Sprintf("%d text elements sampled below a 4.5:1 contrast ratio (%s)",
				r.LowContrast.Count, strings.Join(r.LowContrast.Samples, ", ")))
	}
	return issues
}

// layoutChecksJS renders the in-page heuristic script. Touch target checks
// only make sense on the mobile viewport.
func layoutChecksJS(checkTouchTargets bool) string {
	return fmt.Sprintf(layoutScript, checkTouchTargets)
}

const layoutScript = `(() => {
  const report = { overflow: null, blank: null, smallTargets: null, lowContrast: null };
  const de = document.documentElement;

  if (de.scrollWidth > window.innerWidth + 1) {
    report.overflow = { scrollWidth: de.scrollWidth, innerWidth: window.innerWidth };
  }

  const bodyText = document.body ? document.body.innerText.trim() : "";
  const rendered = document.querySelectorAll("body *:not(script):not(style):not(meta):not(link)").length;
  if (bodyText.length < 3 && rendered < 5) {
    report.blank = { textLength: bodyText.length, rendered: rendered };
  }

  if (%t) {
    const offenders = [];
    document.querySelectorAll("a, button, input, select, textarea, [role=button], [onclick]").forEach(el => {
      const r = el.getBoundingClientRect();
      if (r.width > 0 && r.height > 0 && (r.width < 44 || r.height < 44)) {
        offenders.push(el.tagName.toLowerCase());
      }
    });
    if (offenders.length > 0) {
      report.smallTargets = { count: offenders.length, samples: offenders.slice(0, 5) };
    }
  }

  const parse = (str) => {
    const m = /rgba?\(([\d.]+)[, ]+([\d.]+)[, ]+([\d.]+)(?:[, ]+([\d.]+))?\)/.exec(str);
    if (!m) return null;
    return { r: +m[1], g: +m[2], b: +m[3], a: m[4] === undefined ? 1 : +m[4] };
  };
  const lum = (c) => {
    const f = (v) => { v /= 255; return v <= 0.03928 ? v / 12.92 : Math.pow((v + 0.055) / 1.055, 2.4); };
    return 0.2126 * f(c.r) + 0.7152 * f(c.g) + 0.0722 * f(c.b);
  };
  const bgOf = (el) => {
    for (let n = el; n; n = n.parentElement) {
      const c = parse(getComputedStyle(n).backgroundColor);
      if (c && c.a > 0.1) return c;
    }
    return { r: 255, g: 255, b: 255, a: 1 };
  };

  const lowContrast = [];
  let sampled = 0;
  const all = document.querySelectorAll("body *");
  for (let i = 0; i < all.length && sampled < 40; i++) {
    const el = all[i];
    const hasText = Array.from(el.childNodes).some(n => n.nodeType === 3 && n.textContent.trim().length > 0);
    if (!hasText) continue;
    sampled++;
    const fg = parse(getComputedStyle(el).color);
    if (!fg) continue;
    const l1 = lum(fg);
    const l2 = lum(bgOf(el));
    const ratio = (Math.max(l1, l2) + 0.05) / (Math.min(l1, l2) + 0.05);
    if (ratio < 4.5) {
      lowContrast.push(el.tagName.toLowerCase());
    }
  }
  if (lowContrast.length > 0) {
    report.lowContrast = { count: lowContrast.length, samples: lowContrast.slice(0, 5) };
  }

  return report;
})()`
