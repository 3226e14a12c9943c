package browser

// helperScript is the fixed script payload injected once per page load. It
// installs two capabilities on window:
//
//	__PAGELINT_findLowestElementWithText(root, text) — finds the lowest
//	element whose rendered text contains text and returns it with its
//	bounding box in page coordinates.
//
//	__PAGELINT_underlineText(text, severity) — rewrites the markup of that
//	element so every match of text is wrapped in a styled marker span, and
//	reports success plus the element's bounding box.
//
// Markup rewrites go through a trusted-types policy so pages with a
// content-security policy do not block them. Bump scriptVersion when the
// payload changes.
const scriptVersion = 1

const helperScript = `(() => {
  if (window.__PAGELINT_underlineText) {
    return true;
  }

  if (window.trustedTypes && window.trustedTypes.createPolicy) {
    const policy = window.trustedTypes.createPolicy("pagelint-html", {
      createHTML: (input) => input,
    });
    const descriptor = Object.getOwnPropertyDescriptor(Element.prototype, "innerHTML");
    Object.defineProperty(Element.prototype, "innerHTML", {
      get() {
        return descriptor.get.call(this);
      },
      set(html) {
        descriptor.set.call(this, policy.createHTML(html));
      },
      configurable: true,
    });
  }

  function findLowestElementWithText(root, searchText) {
    const result = { element: null, coordinates: null };

    function traverse(node) {
      if (node.nodeType !== Node.ELEMENT_NODE) {
        return;
      }
      if (!node.innerText || !node.innerText.includes(searchText)) {
        return;
      }
      const rect = node.getBoundingClientRect();
      if (rect.width * rect.height > 0) {
        result.element = node;
        result.coordinates = {
          x: Math.round(rect.x + window.scrollX),
          y: Math.round(rect.y + window.scrollY),
          width: Math.round(rect.width),
          height: Math.round(rect.height),
        };
      }
      for (const child of node.children) {
        traverse(child);
      }
    }

    traverse(root);
    return result;
  }
  window.__PAGELINT_findLowestElementWithText = findLowestElementWithText;

  const severityStyles = {
    critical: { color: "rgba(220,38,38,1)", bg: "rgba(220,38,38,0.2)" },
    important: { color: "rgba(217,119,6,1)", bg: "rgba(217,119,6,0.2)" },
    minor: { color: "rgba(37,99,235,1)", bg: "rgba(37,99,235,0.2)" },
  };

  function underlineText(searchText, severity) {
    const target = findLowestElementWithText(document.body, searchText);
    const node = target.element;
    if (!node || !searchText) {
      return { success: false, coordinates: null };
    }

    // innerHTML encodes & as &amp;, so match the encoded form.
    searchText = searchText.replace(/&/g, "&amp;");
    const regex = new RegExp(
      "(" + searchText.replace(/[.*+?^${}()|[\]\\]/g, "\\$&") + ")",
      "gi",
    );

    // Unrecognized severities fall back to the minor palette.
    const style = severityStyles[severity] || severityStyles.minor;

    node.innerHTML = node.innerHTML.replace(
      regex,
      '<span style="position: relative; display: inline-block;">' +
        '<span class="pagelint-highlight" style="' +
        "text-decoration-line: underline;" +
        "text-decoration-style: solid;" +
        "text-decoration-color: " + style.color + ";" +
        "text-decoration-thickness: 3px;" +
        "background-color: " + style.bg + ';">$1</span></span>',
    );
    return {
      success: node.innerHTML.includes("pagelint-highlight"),
      coordinates: target.coordinates,
    };
  }
  window.__PAGELINT_underlineText = underlineText;

  return true;
})()`
